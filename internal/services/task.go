package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskswap/taskswap/internal/models"
	"github.com/taskswap/taskswap/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskService struct {
	db        *gorm.DB
	timeout   time.Duration
	publisher Publisher
}

// NewTaskService builds the task lifecycle service. publisher may be nil.
func NewTaskService(db *gorm.DB, timeout time.Duration, publisher Publisher) *TaskService {
	return &TaskService{db: db, timeout: timeout, publisher: publisher}
}

type TaskFilter struct {
	Status string
	Skill  string
	Sort   string // "newest" (default) or "oldest"
}

type CreateTaskInput struct {
	Title        string
	Description  string
	OfferedSkill string
	SkillsNeeded []string
}

// TaskPatch lists the fields an owner may change. Nil fields are left alone;
// CreatedBy is deliberately absent.
type TaskPatch struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	OfferedSkill *string   `json:"offeredSkill"`
	SkillsNeeded *[]string `json:"skillsNeeded"`
	Status       *string   `json:"status"`
}

func (s *TaskService) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	// Unknown statuses match nothing and unknown sorts fall back to newest.
	order := sortOrder(filter.Sort)

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query := s.taskQuery(ctx)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		query = query.Where("status <> ?", types.TaskStatusCompleted)
	}

	if skill := strings.TrimSpace(filter.Skill); skill != "" {
		query = query.Where("id IN (?)", s.db.Model(&models.TaskSkill{}).Select("task_id").Where("skill = ?", skill))
	}

	tasks := []models.Task{}

	if err := query.Order(order).Find(&tasks).Error; err != nil {
		return nil, persistenceError("fetch tasks", err)
	}

	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var task models.Task

	if err := s.taskQuery(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Task")
		}
		return nil, persistenceError("fetch task", err)
	}

	return &task, nil
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID string, in CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	skills := normalizeSkills(in.SkillsNeeded)

	if ownerID == "" || title == "" || strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.OfferedSkill) == "" || len(skills) == 0 {
		return nil, validationError("All fields are required")
	}

	id := uuid.NewString()

	task := models.Task{
		BaseModel:    models.BaseModel{ID: id},
		Title:        title,
		Description:  in.Description,
		OfferedSkill: strings.TrimSpace(in.OfferedSkill),
		SkillsNeeded: datatypes.JSONSlice[string](skills),
		Status:       types.TaskStatusOpen,
		CreatedBy:    ownerID,
		Skills:       skillRows(id, skills),
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, persistenceError("create task", err)
	}

	return s.GetTask(ctx, task.ID)
}

func (s *TaskService) UpdateTask(ctx context.Context, id, requesterID string, patch TaskPatch) (*models.Task, error) {
	updates, skills, err := patch.changes()

	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.checkOwner(ctx, id, requesterID, "Not authorized to update this task"); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			result := tx.Model(&models.Task{}).Where("id = ?", id).Updates(updates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		if skills != nil {
			if err := tx.Where("task_id = ?", id).Delete(&models.TaskSkill{}).Error; err != nil {
				return err
			}
			rows := skillRows(id, skills)
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Task")
		}
		return nil, persistenceError("update task", err)
	}

	return s.GetTask(ctx, id)
}

func (s *TaskService) DeleteTask(ctx context.Context, id, requesterID string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.checkOwner(ctx, id, requesterID, "Not authorized to delete this task"); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskSkill{}).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", id).Delete(&models.Proposal{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("Task")
		}
		return persistenceError("delete task", err)
	}

	return nil
}

func (s *TaskService) ListTasksByUser(ctx context.Context, requesterID, targetUserID string) ([]models.Task, error) {
	if requesterID != targetUserID {
		return nil, forbiddenError("Not authorized to view these tasks")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tasks := []models.Task{}

	if err := s.taskQuery(ctx).Where("created_by = ?", targetUserID).Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, persistenceError("fetch user tasks", err)
	}

	return tasks, nil
}

// ProposeSwap appends a pending proposal. The append is a single-row insert,
// so concurrent proposals on the same task never overwrite each other.
func (s *TaskService) ProposeSwap(ctx context.Context, taskID, proposerID string, offeredSkills []string, message string) (*models.Task, error) {
	skills := normalizeSkills(offeredSkills)
	message = strings.TrimSpace(message)

	if proposerID == "" || len(skills) == 0 || message == "" {
		return nil, validationError("Missing required fields: userId, offeredSkills, or message")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	owner, err := s.ownerOf(ctx, taskID)

	if err != nil {
		return nil, err
	}

	if owner == proposerID {
		return nil, &Error{Kind: ErrSelfProposal, Message: "Cannot propose swap on your own task"}
	}

	proposal := models.Proposal{
		TaskID:        taskID,
		UserID:        proposerID,
		OfferedSkills: datatypes.JSONSlice[string](skills),
		Message:       message,
		Status:        types.ProposalStatusPending,
		Timestamp:     time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&proposal).Error; err != nil {
		return nil, persistenceError("propose swap", err)
	}

	task, err := s.GetTask(ctx, taskID)

	if err != nil {
		return nil, err
	}

	s.publishProposals(task.ID, task.Proposals)

	return task, nil
}

// UpdateProposalStatus moves a pending proposal to accepted or rejected and
// returns the task's full proposal list. Repeating the current status is a
// no-op; any other change to a decided proposal is rejected. Task.Status is
// not touched.
func (s *TaskService) UpdateProposalStatus(ctx context.Context, taskID, proposalID, status string) ([]models.Proposal, error) {
	if status != types.ProposalStatusAccepted && status != types.ProposalStatusRejected {
		return nil, validationError("invalid proposal status %q", status)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.ownerOf(ctx, taskID); err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("id = ? AND task_id = ? AND status = ?", proposalID, taskID, types.ProposalStatusPending).
		Update("status", status)

	if result.Error != nil {
		return nil, persistenceError("update proposal", result.Error)
	}

	if result.RowsAffected == 0 {
		var current models.Proposal

		err := s.db.WithContext(ctx).Select("id", "status").Where("id = ? AND task_id = ?", proposalID, taskID).First(&current).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Proposal")
		}

		if err != nil {
			return nil, persistenceError("update proposal", err)
		}

		if current.Status != status {
			return nil, validationError("Proposal already %s", current.Status)
		}
	}

	proposals, err := s.listProposals(ctx, taskID)

	if err != nil {
		return nil, err
	}

	s.publishProposals(taskID, proposals)

	return proposals, nil
}

func (s *TaskService) ListProposals(ctx context.Context, taskID string) ([]models.Proposal, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.ownerOf(ctx, taskID); err != nil {
		return nil, err
	}

	return s.listProposals(ctx, taskID)
}

func (s *TaskService) CompleteTask(ctx context.Context, id, requesterID string) (*models.Task, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.checkOwner(ctx, id, requesterID, "Not authorized to complete this task"); err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Update("status", types.TaskStatusCompleted)

	if result.Error != nil {
		return nil, persistenceError("complete task", result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, notFoundError("Task")
	}

	return s.GetTask(ctx, id)
}

func (s *TaskService) ListCompletedTasks(ctx context.Context) ([]models.Task, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tasks := []models.Task{}

	if err := s.taskQuery(ctx).Where("status = ?", types.TaskStatusCompleted).Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, persistenceError("fetch completed tasks", err)
	}

	return tasks, nil
}

func (s *TaskService) taskQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Creator").
		Preload("Proposals", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC, id ASC")
		})
}

func (s *TaskService) listProposals(ctx context.Context, taskID string) ([]models.Proposal, error) {
	proposals := []models.Proposal{}

	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Order("timestamp ASC, id ASC").Find(&proposals).Error; err != nil {
		return nil, persistenceError("fetch proposals", err)
	}

	return proposals, nil
}

// ownerOf returns the creator of a task, or a NotFound error.
func (s *TaskService) ownerOf(ctx context.Context, taskID string) (string, error) {
	var task models.Task

	if err := s.db.WithContext(ctx).Select("id", "created_by").First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", notFoundError("Task")
		}
		return "", persistenceError("fetch task", err)
	}

	return task.CreatedBy, nil
}

func (s *TaskService) checkOwner(ctx context.Context, id, requesterID, denied string) error {
	owner, err := s.ownerOf(ctx, id)

	if err != nil {
		return err
	}

	if requesterID == "" || owner != requesterID {
		return forbiddenError(denied)
	}

	return nil
}

func (s *TaskService) publishProposals(taskID string, proposals []models.Proposal) {
	if s.publisher != nil {
		s.publisher.ProposalsUpdated(taskID, proposals)
	}
}

func (p TaskPatch) changes() (map[string]interface{}, []string, error) {
	updates := make(map[string]interface{})
	var skills []string

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, nil, validationError("title must not be empty")
		}
		updates["title"] = title
	}

	if p.Description != nil {
		if strings.TrimSpace(*p.Description) == "" {
			return nil, nil, validationError("description must not be empty")
		}
		updates["description"] = *p.Description
	}

	if p.OfferedSkill != nil {
		offered := strings.TrimSpace(*p.OfferedSkill)
		if offered == "" {
			return nil, nil, validationError("offeredSkill must not be empty")
		}
		updates["offered_skill"] = offered
	}

	if p.SkillsNeeded != nil {
		skills = normalizeSkills(*p.SkillsNeeded)
		if len(skills) == 0 {
			return nil, nil, validationError("skillsNeeded must not be empty")
		}
		updates["skills_needed"] = datatypes.JSONSlice[string](skills)
	}

	if p.Status != nil {
		if !types.ValidTaskStatus(*p.Status) {
			return nil, nil, validationError("invalid status %q", *p.Status)
		}
		updates["status"] = *p.Status
	}

	return updates, skills, nil
}

func sortOrder(sort string) string {
	if sort == types.SortOldest {
		return "created_at ASC, id ASC"
	}

	return "created_at DESC, id DESC"
}

func skillRows(taskID string, skills []string) []models.TaskSkill {
	rows := make([]models.TaskSkill, 0, len(skills))

	for _, skill := range skills {
		rows = append(rows, models.TaskSkill{TaskID: taskID, Skill: skill})
	}

	return rows
}
