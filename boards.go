package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bb01/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// BoardService carries the board and organisation flows. Plain CRUD over
// gorm; creation paths run in a transaction so a board never exists without
// its owner membership.
type BoardService struct {
	db *gorm.DB
}

func NewBoardService(db *gorm.DB) *BoardService {
	return &BoardService{db: db}
}

func (b *BoardService) Create(ctx context.Context, name string, ownerID uint) (*models.Board, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	var count int64
	if err := b.db.WithContext(ctx).Model(&models.Board{}).
		Where("name = ? AND deleted_at IS NULL", name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errDuplicate
	}

	board := models.Board{PID: uuid.NewString(), Name: name}
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&board).Error; err != nil {
			return err
		}
		member := models.BoardMember{BoardID: board.ID, UserID: ownerID, IsOwner: true, IsAdmin: true}
		return tx.Create(&member).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// UserBoard is the list-view projection of a board for one member.
type UserBoard struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	IsOwner bool   `json:"is_owner"`
	IsAdmin bool   `json:"is_admin"`
}

func (b *BoardService) ListForUser(ctx context.Context, userID uint, page, perPage int) ([]UserBoard, error) {
	var memberships []models.BoardMember
	if err := b.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("id desc").Offset((page - 1) * perPage).Limit(perPage).
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	boards := make([]UserBoard, 0, len(memberships))
	for _, m := range memberships {
		var board models.Board
		err := b.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", m.BoardID).First(&board).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		boards = append(boards, UserBoard{
			Name:    board.Name,
			URL:     "/api/boards/" + board.PID,
			IsOwner: m.IsOwner,
			IsAdmin: m.IsAdmin,
		})
	}
	return boards, nil
}

func (b *BoardService) GetByPID(ctx context.Context, pid string) (*models.Board, error) {
	var board models.Board
	err := b.db.WithContext(ctx).Preload("Members").
		Where("pid = ? AND deleted_at IS NULL", pid).First(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// Membership returns the caller's membership row for a board, or nil.
func (b *BoardService) Membership(ctx context.Context, boardID, userID uint) (*models.BoardMember, error) {
	var member models.BoardMember
	err := b.db.WithContext(ctx).Where("board_id = ? AND user_id = ?", boardID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Delete soft-deletes a board. Owner only; the rows stay for the audit trail.
func (b *BoardService) Delete(ctx context.Context, board *models.Board) error {
	now := time.Now()
	return b.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", board.ID).
		Update("deleted_at", now).Error
}

func (b *BoardService) CreateOrganisation(ctx context.Context, name string, ownerID uint) (*models.Organisation, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	var count int64
	if err := b.db.WithContext(ctx).Model(&models.Organisation{}).
		Where("name = ? AND deleted_at IS NULL", name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errDuplicate
	}

	org := models.Organisation{PID: uuid.NewString(), Name: name, OwnerID: ownerID}
	err := b.db.WithContext(ctx).Create(&org).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *Server) createBoardHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required,min=3,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, err.Error())
		return
	}

	board, err := s.boards.Create(c.Request.Context(), req.Name, user.ID)
	if err != nil {
		if errors.Is(err, errDuplicate) {
			respond(c, http.StatusConflict, "Board name already in use")
			return
		}
		log.Error().Err(err).Msg("failed to create board")
		respondServerError(c)
		return
	}
	respond(c, http.StatusCreated, gin.H{"pid": board.PID, "name": board.Name})
}

func (s *Server) listBoardsHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	boards, err := s.boards.ListForUser(c.Request.Context(), user.ID, page, perPage)
	if err != nil {
		log.Error().Err(err).Msg("failed to list boards")
		respondServerError(c)
		return
	}
	respond(c, http.StatusOK, boards)
}

func (s *Server) getBoardHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	board, err := s.boards.GetByPID(c.Request.Context(), c.Param("pid"))
	if err != nil {
		if errors.Is(err, errNotFound) {
			respond(c, http.StatusNotFound, "Board not found")
			return
		}
		log.Error().Err(err).Msg("failed to get board")
		respondServerError(c)
		return
	}

	member, err := s.boards.Membership(c.Request.Context(), board.ID, user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to check board membership")
		respondServerError(c)
		return
	}
	if member == nil {
		respond(c, http.StatusForbidden, "Not a member of this board")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"pid":      board.PID,
		"name":     board.Name,
		"is_owner": member.IsOwner,
		"is_admin": member.IsAdmin,
		"members":  len(board.Members),
	})
}

func (s *Server) deleteBoardHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	board, err := s.boards.GetByPID(c.Request.Context(), c.Param("pid"))
	if err != nil {
		if errors.Is(err, errNotFound) {
			respond(c, http.StatusNotFound, "Board not found")
			return
		}
		log.Error().Err(err).Msg("failed to get board")
		respondServerError(c)
		return
	}

	member, err := s.boards.Membership(c.Request.Context(), board.ID, user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to check board membership")
		respondServerError(c)
		return
	}
	if member == nil || !member.IsOwner {
		respond(c, http.StatusForbidden, "Only the board owner can delete it")
		return
	}

	if err := s.boards.Delete(c.Request.Context(), board); err != nil {
		log.Error().Err(err).Msg("failed to delete board")
		respondServerError(c)
		return
	}
	respond(c, http.StatusOK, "Board deleted")
}

func (s *Server) createOrganisationHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required,min=3,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, err.Error())
		return
	}

	org, err := s.boards.CreateOrganisation(c.Request.Context(), req.Name, user.ID)
	if err != nil {
		if errors.Is(err, errDuplicate) {
			respond(c, http.StatusConflict, "Organisation name already in use")
			return
		}
		log.Error().Err(err).Msg("failed to create organisation")
		respondServerError(c)
		return
	}
	respond(c, http.StatusCreated, gin.H{"pid": org.PID, "name": org.Name})
}
