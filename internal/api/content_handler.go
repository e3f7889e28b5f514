package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"portfolio/internal/database"
)

// ContentHandler 负责作品集内容的公开读取与后台维护。
// 这层只是数据库之上的薄胶水，生成管道不直接依赖它。
type ContentHandler struct {
	db *gorm.DB
}

// NewContentHandler 构造 ContentHandler。
func NewContentHandler(db *gorm.DB) *ContentHandler {
	return &ContentHandler{db: db}
}

// GetProfile 返回站点个人资料（单行）。
func (h *ContentHandler) GetProfile(c *gin.Context) {
	var profile database.Profile
	if err := h.db.WithContext(c.Request.Context()).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "profile not found")
		} else {
			Internal(c, "failed to query profile")
		}
		return
	}
	c.JSON(http.StatusOK, profile)
}

type profileRequest struct {
	Name            string `json:"name" binding:"required"`
	Headline        string `json:"headline"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Location        string `json:"location"`
	Website         string `json:"website"`
	LinkedIn        string `json:"linkedin"`
	GitHub          string `json:"github"`
	Bio             string `json:"bio"`
	AvatarObjectKey string `json:"avatar_object_key"`
}

// UpsertProfile 创建或覆盖个人资料单行。
func (h *ContentHandler) UpsertProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var profile database.Profile
	err := h.db.WithContext(ctx).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		Internal(c, "failed to query profile")
		return
	}

	profile.Name = req.Name
	profile.Headline = req.Headline
	profile.Email = req.Email
	profile.Phone = req.Phone
	profile.Location = req.Location
	profile.Website = req.Website
	profile.LinkedIn = req.LinkedIn
	profile.GitHub = req.GitHub
	profile.Bio = req.Bio
	profile.AvatarObjectKey = req.AvatarObjectKey

	if err := h.db.WithContext(ctx).Save(&profile).Error; err != nil {
		Internal(c, "failed to save profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListExperience 按 sort_order 返回全部工作经历。
func (h *ContentHandler) ListExperience(c *gin.Context) {
	var rows []database.Experience
	if err := h.db.WithContext(c.Request.Context()).
		Order("sort_order asc").Find(&rows).Error; err != nil {
		Internal(c, "failed to list experience")
		return
	}
	c.JSON(http.StatusOK, rows)
}

type experienceRequest struct {
	Title       string `json:"title" binding:"required"`
	Company     string `json:"company" binding:"required"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// CreateExperience 新增一条工作经历。
func (h *ContentHandler) CreateExperience(c *gin.Context) {
	var req experienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	row := database.Experience{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Current:     req.Current,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&row).Error; err != nil {
		Internal(c, "failed to create experience")
		return
	}
	c.JSON(http.StatusCreated, row)
}

// UpdateExperience 覆盖一条工作经历。
func (h *ContentHandler) UpdateExperience(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid experience id")
		return
	}
	var req experienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var row database.Experience
	if err := h.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "experience not found")
		} else {
			Internal(c, "failed to query experience")
		}
		return
	}

	updates := map[string]any{
		"title":       req.Title,
		"company":     req.Company,
		"location":    req.Location,
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
		"current":     req.Current,
		"description": req.Description,
		"sort_order":  req.SortOrder,
	}
	if err := h.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		Internal(c, "failed to update experience")
		return
	}
	c.JSON(http.StatusOK, row)
}

// DeleteExperience 删除一条工作经历。
func (h *ContentHandler) DeleteExperience(c *gin.Context) {
	h.deleteByID(c, &database.Experience{}, "experience")
}

// ListProjects 按 sort_order 返回全部项目。
func (h *ContentHandler) ListProjects(c *gin.Context) {
	var rows []database.Project
	if err := h.db.WithContext(c.Request.Context()).
		Order("sort_order asc").Find(&rows).Error; err != nil {
		Internal(c, "failed to list projects")
		return
	}
	c.JSON(http.StatusOK, rows)
}

type projectRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	LiveURL        string   `json:"live_url"`
	RepoURL        string   `json:"repo_url"`
	ImageObjectKey string   `json:"image_object_key"`
	Featured       bool     `json:"featured"`
	SortOrder      int      `json:"sort_order"`
}

func (r projectRequest) tagsJSON() (datatypes.JSON, error) {
	if r.Tags == nil {
		return nil, nil
	}
	data, err := json.Marshal(r.Tags)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// CreateProject 新增一个项目。
func (h *ContentHandler) CreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	tags, err := req.tagsJSON()
	if err != nil {
		BadRequest(c, "invalid tags")
		return
	}
	row := database.Project{
		Title:          req.Title,
		Description:    req.Description,
		Tags:           tags,
		LiveURL:        req.LiveURL,
		RepoURL:        req.RepoURL,
		ImageObjectKey: req.ImageObjectKey,
		Featured:       req.Featured,
		SortOrder:      req.SortOrder,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&row).Error; err != nil {
		Internal(c, "failed to create project")
		return
	}
	c.JSON(http.StatusCreated, row)
}

// UpdateProject 覆盖一个项目。
func (h *ContentHandler) UpdateProject(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid project id")
		return
	}
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	tags, err := req.tagsJSON()
	if err != nil {
		BadRequest(c, "invalid tags")
		return
	}

	ctx := c.Request.Context()
	var row database.Project
	if err := h.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "project not found")
		} else {
			Internal(c, "failed to query project")
		}
		return
	}

	updates := map[string]any{
		"title":            req.Title,
		"description":      req.Description,
		"tags":             tags,
		"live_url":         req.LiveURL,
		"repo_url":         req.RepoURL,
		"image_object_key": req.ImageObjectKey,
		"featured":         req.Featured,
		"sort_order":       req.SortOrder,
	}
	if err := h.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		Internal(c, "failed to update project")
		return
	}
	c.JSON(http.StatusOK, row)
}

// DeleteProject 删除一个项目。
func (h *ContentHandler) DeleteProject(c *gin.Context) {
	h.deleteByID(c, &database.Project{}, "project")
}

// ListSkills 返回技能分类及其成员技能，均按 sort_order 排序。
func (h *ContentHandler) ListSkills(c *gin.Context) {
	var groups []database.SkillGroup
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Skills", func(db *gorm.DB) *gorm.DB {
			return db.Order("skills.sort_order asc")
		}).
		Order("sort_order asc").
		Find(&groups).Error; err != nil {
		Internal(c, "failed to list skills")
		return
	}
	c.JSON(http.StatusOK, groups)
}

type skillGroupRequest struct {
	Category  string   `json:"category" binding:"required"`
	SortOrder int      `json:"sort_order"`
	Skills    []string `json:"skills"`
}

// CreateSkillGroup 新增技能分类及其成员技能。
func (h *ContentHandler) CreateSkillGroup(c *gin.Context) {
	var req skillGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	group := database.SkillGroup{
		Category:  req.Category,
		SortOrder: req.SortOrder,
	}
	for i, name := range req.Skills {
		group.Skills = append(group.Skills, database.Skill{Name: name, SortOrder: i})
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&group).Error; err != nil {
		Internal(c, "failed to create skill group")
		return
	}
	c.JSON(http.StatusCreated, group)
}

// UpdateSkillGroup 覆盖技能分类，成员技能整体替换。
func (h *ContentHandler) UpdateSkillGroup(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid skill group id")
		return
	}
	var req skillGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var group database.SkillGroup
	if err := h.db.WithContext(ctx).First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "skill group not found")
		} else {
			Internal(c, "failed to query skill group")
		}
		return
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&group).Updates(map[string]any{
			"category":   req.Category,
			"sort_order": req.SortOrder,
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&database.Skill{}).Error; err != nil {
			return err
		}
		for i, name := range req.Skills {
			skill := database.Skill{GroupID: group.ID, Name: name, SortOrder: i}
			if err := tx.Create(&skill).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		Internal(c, "failed to update skill group")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteSkillGroup 删除技能分类（级联删除成员技能）。
func (h *ContentHandler) DeleteSkillGroup(c *gin.Context) {
	h.deleteByID(c, &database.SkillGroup{}, "skill group")
}

// ListEducation 按 sort_order 返回全部教育经历。
func (h *ContentHandler) ListEducation(c *gin.Context) {
	var rows []database.Education
	if err := h.db.WithContext(c.Request.Context()).
		Order("sort_order asc").Find(&rows).Error; err != nil {
		Internal(c, "failed to list education")
		return
	}
	c.JSON(http.StatusOK, rows)
}

type educationRequest struct {
	Institution string `json:"institution" binding:"required"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// CreateEducation 新增一条教育经历。
func (h *ContentHandler) CreateEducation(c *gin.Context) {
	var req educationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	row := database.Education{
		Institution: req.Institution,
		Degree:      req.Degree,
		Field:       req.Field,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&row).Error; err != nil {
		Internal(c, "failed to create education")
		return
	}
	c.JSON(http.StatusCreated, row)
}

// UpdateEducation 覆盖一条教育经历。
func (h *ContentHandler) UpdateEducation(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid education id")
		return
	}
	var req educationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var row database.Education
	if err := h.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "education not found")
		} else {
			Internal(c, "failed to query education")
		}
		return
	}

	updates := map[string]any{
		"institution": req.Institution,
		"degree":      req.Degree,
		"field":       req.Field,
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
		"description": req.Description,
		"sort_order":  req.SortOrder,
	}
	if err := h.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		Internal(c, "failed to update education")
		return
	}
	c.JSON(http.StatusOK, row)
}

// DeleteEducation 删除一条教育经历。
func (h *ContentHandler) DeleteEducation(c *gin.Context) {
	h.deleteByID(c, &database.Education{}, "education")
}

// ListTemplates 列出可选的简历模板。
func (h *ContentHandler) ListTemplates(c *gin.Context) {
	var rows []database.ResumeTemplate
	if err := h.db.WithContext(c.Request.Context()).
		Order("key asc").Find(&rows).Error; err != nil {
		Internal(c, "failed to list resume templates")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ContentHandler) deleteByID(c *gin.Context, model any, name string) {
	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, "invalid "+name+" id")
		return
	}
	result := h.db.WithContext(c.Request.Context()).Delete(model, id)
	if result.Error != nil {
		Internal(c, "failed to delete "+name)
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, name+" not found")
		return
	}
	c.Status(http.StatusNoContent)
}
