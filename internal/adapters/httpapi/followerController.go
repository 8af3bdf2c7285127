package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type FollowerController struct{ fc FollowerUseCase }

func NewFollowerController(fc FollowerUseCase) *FollowerController {
	return &FollowerController{fc: fc}
}

// FollowUser answers 201 for a new edge and 200 when it already existed.
func (ctl *FollowerController) FollowUser(c *gin.Context) {
	created, err := ctl.fc.FollowUser(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"following": true})
}

func (ctl *FollowerController) UnfollowUser(c *gin.Context) {
	if err := ctl.fc.UnfollowUser(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

func (ctl *FollowerController) IsFollowing(c *gin.Context) {
	ok, err := ctl.fc.IsFollowing(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": ok})
}

func (ctl *FollowerController) GetFollowers(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := ctl.fc.GetFollowers(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": list})
}

func (ctl *FollowerController) GetFollowing(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := ctl.fc.GetFollowing(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": list})
}
