package resume

import "strings"

// PageSize 表示导出 PDF 的纸张尺寸。
type PageSize string

const (
	PageA4     PageSize = "a4"
	PageLetter PageSize = "letter"
)

// Dimensions 返回纸张的宽高（英寸），PDF 引擎按此设置页面。
func (p PageSize) Dimensions() (width, height float64) {
	switch p {
	case PageLetter:
		return 8.5, 11.0
	default:
		return 8.27, 11.69 // A4
	}
}

// NormalizePageSize 把数据库里的纸张字符串规整为已知枚举，未知值回落到 A4。
func NormalizePageSize(raw string) PageSize {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(PageLetter):
		return PageLetter
	default:
		return PageA4
	}
}

// SectionKind 标识简历中一个区块的类型。
// summary 的内容放在 Data.Summary，从不作为区块填充；
// custom 目前不携带条目，两者都是预留的扩展点。
type SectionKind string

const (
	SectionExperience SectionKind = "experience"
	SectionProjects   SectionKind = "projects"
	SectionSkills     SectionKind = "skills"
	SectionEducation  SectionKind = "education"
	SectionSummary    SectionKind = "summary"
	SectionCustom     SectionKind = "custom"
)

// SectionConfig 是 ResumeConfig.Sections JSONB 里的单个开关项。
type SectionConfig struct {
	Kind      SectionKind `json:"kind"`
	Enabled   bool        `json:"enabled"`
	SortOrder int         `json:"sort_order"`
	Label     string      `json:"label"`
	// ItemIDs 为空（nil 或空数组）表示不过滤，全部包含。
	ItemIDs []uint `json:"item_ids,omitempty"`
}

// Section 是封闭的标签联合：Kind 决定哪个条目切片被填充。
type Section struct {
	Kind        SectionKind      `json:"kind"`
	Label       string           `json:"label"`
	Experience  []ExperienceItem `json:"experience,omitempty"`
	Projects    []ProjectItem    `json:"projects,omitempty"`
	SkillGroups []SkillGroupItem `json:"skill_groups,omitempty"`
	Education   []EducationItem  `json:"education,omitempty"`
}

// ExperienceItem 是渲染用的工作经历条目。
type ExperienceItem struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	DateRange   string `json:"date_range"`
	Description string `json:"description,omitempty"`
}

// ProjectItem 是渲染用的项目条目。
type ProjectItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	LiveURL     string   `json:"live_url,omitempty"`
	RepoURL     string   `json:"repo_url,omitempty"`
}

// SkillGroupItem 是渲染用的技能分类，带成员技能名列表。
type SkillGroupItem struct {
	Category string   `json:"category"`
	Skills   []string `json:"skills"`
}

// EducationItem 是渲染用的教育经历条目。
type EducationItem struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	DateRange   string `json:"date_range"`
	Description string `json:"description,omitempty"`
}

// ProfileInfo 是渲染用的个人资料摘要。
type ProfileInfo struct {
	Name     string `json:"name"`
	Headline string `json:"headline,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// Data 是装配器产出的唯一规范文档，也是渲染的唯一输入。
// 它必须完全自包含：版本快照存的就是这个结构的 JSON，
// 重放时不再需要查任何 CMS 表，所以模板 Key 也随数据一起保存。
type Data struct {
	TemplateKey string      `json:"template_key"`
	Profile     ProfileInfo `json:"profile"`
	Summary     string      `json:"summary,omitempty"`
	Sections    []Section   `json:"sections"`
	Style       Style       `json:"style"`
	PageSize    PageSize    `json:"page_size"`
}

// FormatDateRange 把起止日期拼成展示用区间，current 为真时终点显示 Present。
func FormatDateRange(start, end string, current bool) string {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	switch {
	case current:
		end = "Present"
	case end == "":
		return start
	}
	if start == "" {
		return end
	}
	return start + " – " + end
}
