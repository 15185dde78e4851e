package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/permissions"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateTaskRequest struct {
	Board       uint       `json:"board" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status" binding:"required,oneof=to-do in-progress review done"`
	Priority    string     `json:"priority" binding:"required,oneof=low medium high"`
	AssigneeID  *uint      `json:"assignee_id"`
	ReviewerID  *uint      `json:"reviewer_id"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,oneof=to-do in-progress review done"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssigneeID  *uint      `json:"assignee_id"`
	ReviewerID  *uint      `json:"reviewer_id"`
	DueDate     *time.Time `json:"due_date"`
}

type TaskResponse struct {
	ID            uint                `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        string              `json:"status"`
	Priority      string              `json:"priority"`
	Assignee      *types.UserResponse `json:"assignee"`
	Reviewer      *types.UserResponse `json:"reviewer"`
	DueDate       *time.Time          `json:"due_date"`
	CommentsCount int64               `json:"comments_count"`
	Board         uint                `json:"board"`
}

// accessibleTasks returns a query scoped to tasks on boards the user
// owns or belongs to.
func accessibleTasks(userID uint) *gorm.DB {
	return db.DB.Model(&models.Task{}).
		Joins("JOIN boards ON boards.id = tasks.board_id").
		Joins("LEFT JOIN board_members ON board_members.board_id = boards.id").
		Where("boards.owner_id = ? OR board_members.user_id = ?", userID, userID).
		Distinct("tasks.*")
}

func CreateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var board models.Board

	if err := db.DB.Preload("Members").First(&board, body.Board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		} else {
			log.Printf("Failed to retrieve board %d: %v", body.Board, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		}
		return
	}

	if !permissions.CanAccessBoard(userID, &board) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a board member"})
		return
	}

	task := models.Task{
		BoardID:     board.ID,
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Priority:    body.Priority,
		DueDate:     body.DueDate,
		CreatedByID: userID,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	// Assignee and reviewer are attached in a second write, and are
	// deliberately not validated against the board's member set.
	if body.AssigneeID != nil || body.ReviewerID != nil {
		task.AssigneeID = body.AssigneeID
		task.ReviewerID = body.ReviewerID

		if err := db.DB.Save(&task).Error; err != nil {
			log.Printf("Failed to set assignee/reviewer on task %d: %v", task.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
			return
		}
	}

	if err := db.DB.Preload("Assignee").Preload("Reviewer").First(&task, task.ID).Error; err != nil {
		log.Printf("Failed to reload task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	BroadcastRefresh(strconv.FormatUint(uint64(board.ID), 10))

	ctx.JSON(http.StatusCreated, buildTaskResponse(task))
}

func ListTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listTasksWhere(ctx, accessibleTasks(userID))
}

func ListTasksAssignedToMe(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listTasksWhere(ctx, accessibleTasks(userID).Where("tasks.assignee_id = ?", userID))
}

func ListTasksReviewing(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listTasksWhere(ctx, accessibleTasks(userID).Where("tasks.reviewer_id = ?", userID))
}

func listTasksWhere(ctx *gin.Context, query *gorm.DB) {
	var tasks []models.Task

	if err := query.Preload("Assignee").Preload("Reviewer").Find(&tasks).Error; err != nil {
		log.Printf("Failed to list tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		response = append(response, buildTaskResponse(task))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetTask(ctx *gin.Context) {
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

	var task models.Task

	if err := db.DB.Preload("Board.Members").
		Preload("Assignee").
		Preload("Reviewer").
		First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to retrieve task %d: %v", taskID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	if !permissions.CanAccess(userID, &task) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a board member"})
		return
	}

	ctx.JSON(http.StatusOK, buildTaskResponse(task))
}

func UpdateTask(ctx *gin.Context) {
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

	var body UpdateTaskRequest

	if err := ctx.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The raw key set distinguishes an omitted assignee_id from an
	// explicit null, which clears the field.
	var raw map[string]interface{}

	if err := ctx.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var task models.Task

	if err := db.DB.Preload("Board.Members").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to retrieve task %d: %v", taskID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	if !permissions.CanAccess(userID, &task) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a board member"})
		return
	}

	if body.Title != nil {
		task.Title = *body.Title
	}

	if body.Description != nil {
		task.Description = *body.Description
	}

	if body.Status != nil {
		task.Status = *body.Status
	}

	if body.Priority != nil {
		task.Priority = *body.Priority
	}

	if body.DueDate != nil {
		task.DueDate = body.DueDate
	}

	if err := db.DB.Save(&task).Error; err != nil {
		log.Printf("Failed to update task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	// Same second-write pattern as creation, again without membership
	// validation.
	if _, ok := raw["assignee_id"]; ok {
		task.AssigneeID = body.AssigneeID
	}

	if _, ok := raw["reviewer_id"]; ok {
		task.ReviewerID = body.ReviewerID
	}

	if err := db.DB.Model(&task).Select("assignee_id", "reviewer_id").Updates(map[string]interface{}{
		"assignee_id": task.AssigneeID,
		"reviewer_id": task.ReviewerID,
	}).Error; err != nil {
		log.Printf("Failed to set assignee/reviewer on task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	if err := db.DB.Preload("Assignee").Preload("Reviewer").First(&task, task.ID).Error; err != nil {
		log.Printf("Failed to reload task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	BroadcastRefresh(strconv.FormatUint(uint64(task.BoardID), 10))

	ctx.JSON(http.StatusOK, buildTaskResponse(task))
}

func DeleteTask(ctx *gin.Context) {
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

	var task models.Task

	if err := db.DB.Preload("Board").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to retrieve task %d: %v", taskID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	if !permissions.CanDeleteTask(userID, &task) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this task"})
		return
	}

	if err := db.DB.Select(clause.Associations).Delete(&task).Error; err != nil {
		log.Printf("Failed to delete task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	BroadcastRefresh(strconv.FormatUint(uint64(task.BoardID), 10))

	ctx.Status(http.StatusNoContent)
}

func buildTaskResponse(task models.Task) TaskResponse {
	var commentsCount int64

	if err := db.DB.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&commentsCount).Error; err != nil {
		log.Printf("Failed to count comments for task %d: %v", task.ID, err)
	}

	response := TaskResponse{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Status:        task.Status,
		Priority:      task.Priority,
		DueDate:       task.DueDate,
		CommentsCount: commentsCount,
		Board:         task.BoardID,
	}

	if task.Assignee != nil {
		response.Assignee = &types.UserResponse{
			ID:       task.Assignee.ID,
			Email:    task.Assignee.Email,
			Fullname: task.Assignee.Fullname,
		}
	}

	if task.Reviewer != nil {
		response.Reviewer = &types.UserResponse{
			ID:       task.Reviewer.ID,
			Email:    task.Reviewer.Email,
			Fullname: task.Reviewer.Fullname,
		}
	}

	return response
}
