package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/permissions"
	"github.com/taskboard-dev/taskboard/internal/utils"
	"gorm.io/gorm"
)

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
}

func ListComments(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, ok := loadTaskForComments(ctx, userID, taskID)

	if !ok {
		return
	}

	var comments []models.Comment

	if err := db.DB.Preload("Author").
		Where("task_id = ?", task.ID).
		Order("created_at").
		Find(&comments).Error; err != nil {
		log.Printf("Failed to list comments for task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	response := make([]CommentResponse, 0, len(comments))

	for _, comment := range comments {
		response = append(response, buildCommentResponse(comment))
	}

	ctx.JSON(http.StatusOK, response)
}

func CreateComment(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, ok := loadTaskForComments(ctx, currentUser.ID, taskID)

	if !ok {
		return
	}

	var body CreateCommentRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}

	// The author is always the caller; created_at is server-assigned.
	comment := models.Comment{
		TaskID:   task.ID,
		AuthorID: currentUser.ID,
		Content:  body.Content,
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		log.Printf("Failed to create comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	comment.Author = models.User{
		Model:    gorm.Model{ID: currentUser.ID},
		Fullname: currentUser.Fullname,
		Email:    currentUser.Email,
	}

	BroadcastRefresh(strconv.FormatUint(uint64(task.BoardID), 10))

	ctx.JSON(http.StatusCreated, buildCommentResponse(comment))
}

func DeleteComment(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, commentID, err := utils.GetTaskCommentID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var comment models.Comment

	if err := db.DB.Where("id = ? AND task_id = ?", commentID, taskID).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		} else {
			log.Printf("Failed to retrieve comment %d: %v", commentID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comment"})
		}
		return
	}

	if !permissions.CanDeleteComment(userID, &comment) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not comment author"})
		return
	}

	if err := db.DB.Delete(&comment).Error; err != nil {
		log.Printf("Failed to delete comment %d: %v", comment.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	var task models.Task

	if err := db.DB.Select("id, board_id").First(&task, comment.TaskID).Error; err == nil {
		BroadcastRefresh(strconv.FormatUint(uint64(task.BoardID), 10))
	}

	ctx.Status(http.StatusNoContent)
}

// loadTaskForComments resolves the task and applies the board-access
// rule, writing the error response itself on failure.
func loadTaskForComments(ctx *gin.Context, userID uint, taskID uint64) (models.Task, bool) {
	var task models.Task

	if err := db.DB.Preload("Board.Members").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to retrieve task %d: %v", taskID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return models.Task{}, false
	}

	if !permissions.CanAccess(userID, &task) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a board member"})
		return models.Task{}, false
	}

	return task, true
}

func buildCommentResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		CreatedAt: comment.CreatedAt,
		Author:    comment.Author.Fullname,
		Content:   comment.Content,
	}
}
