package httpapi

import (
	"net/http"

	postPort "instafeed/internal/ports/post"

	"github.com/gin-gonic/gin"
)

type PostController struct{ pc PostUseCase }

func NewPostController(pc PostUseCase) *PostController { return &PostController{pc: pc} }

func (ctl *PostController) CreatePost(c *gin.Context) {
	var req struct {
		Caption          string   `json:"caption"`
		Location         string   `json:"location"`
		CommentsDisabled bool     `json:"comments_disabled"`
		MediaURLs        []string `json:"media_urls"`
		MediaTypes       []string `json:"media_types"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	res, err := ctl.pc.CreatePost(c.Request.Context(), postPort.CreatePostInput{
		AuthorID:         currentUser(c),
		Caption:          req.Caption,
		Location:         req.Location,
		CommentsDisabled: req.CommentsDisabled,
		MediaURLs:        req.MediaURLs,
		MediaTypes:       req.MediaTypes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (ctl *PostController) GetPost(c *gin.Context) {
	res, err := ctl.pc.GetPost(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ctl *PostController) LikePost(c *gin.Context) {
	created, err := ctl.pc.LikePost(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": true, "created": created})
}

func (ctl *PostController) UnlikePost(c *gin.Context) {
	removed, err := ctl.pc.UnlikePost(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": false, "removed": removed})
}

func (ctl *PostController) ListLikers(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	users, err := ctl.pc.ListLikers(c.Request.Context(), currentUser(c), c.Param("id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (ctl *PostController) SavePost(c *gin.Context) {
	created, err := ctl.pc.SavePost(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true, "created": created})
}

func (ctl *PostController) UnsavePost(c *gin.Context) {
	removed, err := ctl.pc.UnsavePost(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": false, "removed": removed})
}

func (ctl *PostController) ListSaved(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	posts, err := ctl.pc.ListSaved(c.Request.Context(), currentUser(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (ctl *PostController) ArchivePost(c *gin.Context) {
	if err := ctl.pc.ArchivePost(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": true})
}

func (ctl *PostController) UnarchivePost(c *gin.Context) {
	if err := ctl.pc.UnarchivePost(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": false})
}
