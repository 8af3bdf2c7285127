package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type StoryController struct{ sc StoryUseCase }

func NewStoryController(sc StoryUseCase) *StoryController { return &StoryController{sc: sc} }

func (ctl *StoryController) CreateStory(c *gin.Context) {
	var req struct {
		MediaType string `json:"media_type" binding:"required"`
		MediaURL  string `json:"media_url" binding:"required"`
		Caption   string `json:"caption"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	st, err := ctl.sc.CreateStory(c.Request.Context(), currentUser(c), req.MediaType, req.MediaURL, req.Caption)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (ctl *StoryController) StoryFeed(c *gin.Context) {
	list, err := ctl.sc.StoryFeed(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": list})
}

func (ctl *StoryController) MyStories(c *gin.Context) {
	list, err := ctl.sc.MyStories(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": list})
}

func (ctl *StoryController) ViewStory(c *gin.Context) {
	created, err := ctl.sc.ViewStory(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"viewed": true, "created": created})
}

func (ctl *StoryController) StoryViewers(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	users, err := ctl.sc.StoryViewers(c.Request.Context(), currentUser(c), c.Param("id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (ctl *StoryController) DeleteStory(c *gin.Context) {
	if err := ctl.sc.DeleteStory(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
