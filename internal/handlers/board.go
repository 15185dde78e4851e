package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/permissions"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateBoardRequest struct {
	Title   string `json:"title" binding:"required"`
	Members []uint `json:"members"`
}

type UpdateBoardRequest struct {
	Title   *string `json:"title"`
	Members []uint  `json:"members"`
}

type BoardSummary struct {
	ID                 uint   `json:"id"`
	Title              string `json:"title"`
	MemberCount        int64  `json:"member_count"`
	TicketCount        int64  `json:"ticket_count"`
	TasksToDoCount     int64  `json:"tasks_to_do_count"`
	TasksHighPrioCount int64  `json:"tasks_high_prio_count"`
	OwnerID            uint   `json:"owner_id"`
}

type BoardDetailResponse struct {
	ID      uint                 `json:"id"`
	Title   string               `json:"title"`
	OwnerID uint                 `json:"owner_id"`
	Members []types.UserResponse `json:"members"`
	Tasks   []TaskResponse       `json:"tasks"`
}

type UpdateBoardResponse struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	OwnerData   types.UserResponse   `json:"owner_data"`
	MembersData []types.UserResponse `json:"members_data"`
}

// accessibleBoards returns a query scoped to the boards the user owns
// or belongs to, de-duplicated across the two relations.
func accessibleBoards(userID uint) *gorm.DB {
	return db.DB.Model(&models.Board{}).
		Joins("LEFT JOIN board_members ON board_members.board_id = boards.id").
		Where("boards.owner_id = ? OR board_members.user_id = ?", userID, userID).
		Distinct("boards.*")
}

func CreateBoard(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateBoardRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board := models.Board{
		Title:   body.Title,
		OwnerID: userID,
	}

	if err := db.DB.Create(&board).Error; err != nil {
		log.Printf("Failed to create board: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		return
	}

	// The member list is taken as-is; the owner is only a member if
	// the caller included them.
	if len(body.Members) > 0 {
		var members []models.User

		if err := db.DB.Where("id IN ?", body.Members).Find(&members).Error; err != nil {
			log.Printf("Failed to fetch board members: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign members"})
			return
		}

		if err := db.DB.Model(&board).Association("Members").Replace(members); err != nil {
			log.Printf("Failed to assign board members: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign members"})
			return
		}
	}

	summary, err := buildBoardSummary(board)

	if err != nil {
		log.Printf("Failed to build summary for board %d: %v", board.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		return
	}

	ctx.JSON(http.StatusCreated, summary)
}

func ListBoards(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var boards []models.Board

	if err := accessibleBoards(userID).Find(&boards).Error; err != nil {
		log.Printf("Failed to list boards: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve boards"})
		return
	}

	response := make([]BoardSummary, 0, len(boards))

	for _, board := range boards {
		summary, err := buildBoardSummary(board)
		if err != nil {
			log.Printf("Failed to build summary for board %d: %v", board.ID, err)
			continue
		}
		response = append(response, summary)
	}

	ctx.JSON(http.StatusOK, response)
}

func GetBoard(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	boardID, err := utils.GetBoardID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var board models.Board

	if err := db.DB.Preload("Members").
		Preload("Tasks.Assignee").
		Preload("Tasks.Reviewer").
		First(&board, boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		} else {
			log.Printf("Failed to retrieve board %d: %v", boardID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		}
		return
	}

	if !permissions.CanAccessBoard(userID, &board) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a board member"})
		return
	}

	tasks := make([]TaskResponse, 0, len(board.Tasks))

	for _, task := range board.Tasks {
		tasks = append(tasks, buildTaskResponse(task))
	}

	ctx.JSON(http.StatusOK, BoardDetailResponse{
		ID:      board.ID,
		Title:   board.Title,
		OwnerID: board.OwnerID,
		Members: buildUserResponses(board.Members),
		Tasks:   tasks,
	})
}

func UpdateBoard(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	boardID, err := utils.GetBoardID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body UpdateBoardRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var board models.Board

	if err := db.DB.Preload("Members").Preload("Owner").First(&board, boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		} else {
			log.Printf("Failed to retrieve board %d: %v", boardID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		}
		return
	}

	if !permissions.CanMutateBoard(userID, &board) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a board member"})
		return
	}

	// An absent title keeps the current one; an explicit empty
	// string is stored as sent.
	if body.Title != nil {
		board.Title = *body.Title
	}

	if err := db.DB.Save(&board).Error; err != nil {
		log.Printf("Failed to update board %d: %v", board.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
		return
	}

	// A non-empty member list replaces the whole set; an empty or
	// absent list leaves membership untouched.
	if len(body.Members) > 0 {
		var members []models.User

		if err := db.DB.Where("id IN ?", body.Members).Find(&members).Error; err != nil {
			log.Printf("Failed to fetch board members: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update members"})
			return
		}

		if err := db.DB.Model(&board).Association("Members").Replace(members); err != nil {
			log.Printf("Failed to replace board members: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update members"})
			return
		}

		board.Members = members
	}

	BroadcastRefresh(strconv.FormatUint(uint64(board.ID), 10))

	ctx.JSON(http.StatusOK, UpdateBoardResponse{
		ID:    board.ID,
		Title: board.Title,
		OwnerData: types.UserResponse{
			ID:       board.Owner.ID,
			Email:    board.Owner.Email,
			Fullname: board.Owner.Fullname,
		},
		MembersData: buildUserResponses(board.Members),
	})
}

func DeleteBoard(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	boardID, err := utils.GetBoardID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var board models.Board

	if err := db.DB.First(&board, boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		} else {
			log.Printf("Failed to retrieve board %d: %v", boardID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		}
		return
	}

	if !permissions.CanDeleteBoard(userID, &board) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not board owner"})
		return
	}

	if err := db.DB.Select(clause.Associations).Delete(&board).Error; err != nil {
		log.Printf("Failed to delete board %d: %v", board.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete board"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func buildBoardSummary(board models.Board) (BoardSummary, error) {
	memberAssoc := db.DB.Model(&board).Association("Members")
	memberCount := memberAssoc.Count()

	if err := memberAssoc.Error; err != nil {
		return BoardSummary{}, err
	}

	var ticketCount int64
	if err := db.DB.Model(&models.Task{}).Where("board_id = ?", board.ID).Count(&ticketCount).Error; err != nil {
		return BoardSummary{}, err
	}

	var toDoCount int64
	if err := db.DB.Model(&models.Task{}).
		Where("board_id = ? AND status = ?", board.ID, types.StatusToDo).
		Count(&toDoCount).Error; err != nil {
		return BoardSummary{}, err
	}

	var highPrioCount int64
	if err := db.DB.Model(&models.Task{}).
		Where("board_id = ? AND priority = ?", board.ID, types.PriorityHigh).
		Count(&highPrioCount).Error; err != nil {
		return BoardSummary{}, err
	}

	return BoardSummary{
		ID:                 board.ID,
		Title:              board.Title,
		MemberCount:        memberCount,
		TicketCount:        ticketCount,
		TasksToDoCount:     toDoCount,
		TasksHighPrioCount: highPrioCount,
		OwnerID:            board.OwnerID,
	}, nil
}

func buildUserResponses(users []models.User) []types.UserResponse {
	response := make([]types.UserResponse, 0, len(users))

	for _, user := range users {
		response = append(response, types.UserResponse{
			ID:       user.ID,
			Email:    user.Email,
			Fullname: user.Fullname,
		})
	}

	return response
}
