package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile 表示站点主人公开的个人资料，全站只有一行。
type Profile struct {
	gorm.Model
	Name            string `gorm:"size:128"`
	Headline        string `gorm:"size:255"`
	Email           string `gorm:"size:255"`
	Phone           string `gorm:"size:64"`
	Location        string `gorm:"size:128"`
	Website         string `gorm:"size:255"`
	LinkedIn        string `gorm:"size:255"`
	GitHub          string `gorm:"size:255"`
	Bio             string `gorm:"type:text"`
	AvatarObjectKey string `gorm:"size:512"`
}

// Experience 表示一段工作经历。
type Experience struct {
	gorm.Model
	Title       string `gorm:"size:255"`
	Company     string `gorm:"size:255"`
	Location    string `gorm:"size:128"`
	StartDate   string `gorm:"size:32"` // YYYY-MM
	EndDate     string `gorm:"size:32"`
	Current     bool   `gorm:"default:false"`
	Description string `gorm:"type:text"`
	SortOrder   int    `gorm:"index"`
}

// Project 表示一个作品集项目。
type Project struct {
	gorm.Model
	Title          string         `gorm:"size:255"`
	Description    string         `gorm:"type:text"`
	Tags           datatypes.JSON `gorm:"type:jsonb"` // JSON 字符串数组
	LiveURL        string         `gorm:"size:512"`
	RepoURL        string         `gorm:"size:512"`
	ImageObjectKey string         `gorm:"size:512"`
	Featured       bool           `gorm:"default:false"`
	SortOrder      int            `gorm:"index"`
}

// SkillGroup 表示技能分类，Skill 通过 GroupID 归属到分类。
type SkillGroup struct {
	gorm.Model
	Category  string  `gorm:"size:128"`
	SortOrder int     `gorm:"index"`
	Skills    []Skill `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
}

// Skill 表示一项具体技能。
type Skill struct {
	gorm.Model
	GroupID   uint   `gorm:"index"`
	Name      string `gorm:"size:128"`
	SortOrder int    `gorm:"index"`
}

// Education 表示一段教育经历。
type Education struct {
	gorm.Model
	Institution string `gorm:"size:255"`
	Degree      string `gorm:"size:128"`
	Field       string `gorm:"size:128"`
	StartDate   string `gorm:"size:32"`
	EndDate     string `gorm:"size:32"`
	Description string `gorm:"type:text"`
	SortOrder   int    `gorm:"index"`
}

// ResumeTemplate 表示一套命名的简历模板：渲染函数的 Key 加默认样式与纸张尺寸。
type ResumeTemplate struct {
	gorm.Model
	Key         string         `gorm:"size:64;uniqueIndex"`
	Name        string         `gorm:"size:128"`
	StyleConfig datatypes.JSON `gorm:"type:jsonb"` // 部分 Style 字段，缺省回落到硬编码默认值
	PageSize    string         `gorm:"size:16"`
}

// ResumeConfig 表示管理员编辑的简历配置：选哪些内容、什么顺序、什么样式。
type ResumeConfig struct {
	gorm.Model
	Name           string `gorm:"size:255"`
	TemplateID     *uint  `gorm:"index"`
	Template       *ResumeTemplate
	Sections       datatypes.JSON `gorm:"type:jsonb"` // []resume.SectionConfig
	StyleOverrides datatypes.JSON `gorm:"type:jsonb"` // resume.StylePatch
	CustomSummary  string         `gorm:"type:text"`
}

// ResumeVersion 表示一次成功生成的不可变审计记录。
// Snapshot 是生成当时的完整 ResumeData JSON，CMS 内容后续变化不影响重放。
type ResumeVersion struct {
	gorm.Model
	VersionID        string `gorm:"size:36;uniqueIndex"`
	ConfigID         uint   `gorm:"index"`
	TemplateID       *uint
	Snapshot         datatypes.JSON `gorm:"type:jsonb"`
	PdfPath          string         `gorm:"size:512"`
	FileSize         int64
	GenerationMs     int64
	IsActive         bool   `gorm:"default:false"`
	PreviewObjectKey string `gorm:"size:512"`
}
