package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CommentController struct{ cc CommentUseCase }

func NewCommentController(cc CommentUseCase) *CommentController { return &CommentController{cc: cc} }

func (ctl *CommentController) CreateComment(c *gin.Context) {
	var req struct {
		Content  string `json:"content" binding:"required"`
		ParentID string `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	res, err := ctl.cc.CreateComment(c.Request.Context(), currentUser(c), c.Param("id"), req.Content, req.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (ctl *CommentController) ListComments(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := ctl.cc.ListComments(c.Request.Context(), currentUser(c), c.Param("id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}

func (ctl *CommentController) DeleteComment(c *gin.Context) {
	if err := ctl.cc.DeleteComment(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *CommentController) ListReplies(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := ctl.cc.ListReplies(c.Request.Context(), currentUser(c), c.Param("id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}

func (ctl *CommentController) EditComment(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	res, err := ctl.cc.EditComment(c.Request.Context(), currentUser(c), c.Param("id"), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ctl *CommentController) LikeComment(c *gin.Context) {
	created, err := ctl.cc.LikeComment(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": true, "created": created})
}

func (ctl *CommentController) UnlikeComment(c *gin.Context) {
	removed, err := ctl.cc.UnlikeComment(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": false, "removed": removed})
}
