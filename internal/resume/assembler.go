package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"portfolio/internal/database"
)

// DefaultTemplateKey 是配置未引用模板（或引用的模板行不存在）时使用的渲染模板。
const DefaultTemplateKey = "classic"

// Assembler 负责把 CMS 各表的内容按配置装配成一份自包含的 Data 文档。
type Assembler struct {
	db *gorm.DB
}

// NewAssembler 构造装配器。
func NewAssembler(db *gorm.DB) *Assembler {
	return &Assembler{db: db}
}

// Assemble 按配置装配简历数据。
// 样式按 默认 < 模板 < 配置覆盖 逐字段解析；区块按 sort_order 升序，只保留 enabled。
// 配置引用的模板行不存在时回落到默认样式与 A4，不报错；profile 行缺失则返回 ErrProfileNotFound。
func (a *Assembler) Assemble(ctx context.Context, cfg *database.ResumeConfig) (*Data, error) {
	var profile database.Profile
	if err := a.db.WithContext(ctx).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}

	templateKey := DefaultTemplateKey
	var templatePatch *StylePatch
	pageSize := PageA4
	if cfg.TemplateID != nil {
		var tpl database.ResumeTemplate
		err := a.db.WithContext(ctx).First(&tpl, *cfg.TemplateID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 模板被删或引用悬空：保持默认值，继续生成。
		case err != nil:
			return nil, fmt.Errorf("query resume template %d: %w", *cfg.TemplateID, err)
		default:
			if strings.TrimSpace(tpl.Key) != "" {
				templateKey = tpl.Key
			}
			pageSize = NormalizePageSize(tpl.PageSize)
			patch, err := decodeStylePatch(tpl.StyleConfig)
			if err != nil {
				return nil, fmt.Errorf("decode template style config: %w", err)
			}
			templatePatch = patch
		}
	}

	overridePatch, err := decodeStylePatch(cfg.StyleOverrides)
	if err != nil {
		return nil, fmt.Errorf("decode style overrides: %w", err)
	}
	style := ResolveStyle(templatePatch, overridePatch)

	sectionConfigs, err := decodeSectionConfigs(cfg.Sections)
	if err != nil {
		return nil, fmt.Errorf("decode section configs: %w", err)
	}

	enabled := make([]SectionConfig, 0, len(sectionConfigs))
	for _, sc := range sectionConfigs {
		if sc.Enabled {
			enabled = append(enabled, sc)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].SortOrder < enabled[j].SortOrder
	})

	sections := make([]Section, 0, len(enabled))
	for _, sc := range enabled {
		section, ok, err := a.buildSection(ctx, sc)
		if err != nil {
			return nil, err
		}
		if ok {
			sections = append(sections, section)
		}
	}

	return &Data{
		TemplateKey: templateKey,
		Profile: ProfileInfo{
			Name:     profile.Name,
			Headline: profile.Headline,
			Email:    profile.Email,
			Phone:    profile.Phone,
			Location: profile.Location,
			Website:  profile.Website,
			LinkedIn: profile.LinkedIn,
			GitHub:   profile.GitHub,
		},
		Summary:  cfg.CustomSummary,
		Sections: sections,
		Style:    style,
		PageSize: pageSize,
	}, nil
}

// buildSection 按区块类型分发到对应的查询+映射流程。
// 返回 ok=false 表示该类型不产出区块（summary 的内容在顶层 Summary 字段）。
func (a *Assembler) buildSection(ctx context.Context, sc SectionConfig) (Section, bool, error) {
	switch sc.Kind {
	case SectionExperience:
		section, err := a.buildExperience(ctx, sc)
		return section, err == nil, err
	case SectionProjects:
		section, err := a.buildProjects(ctx, sc)
		return section, err == nil, err
	case SectionSkills:
		section, err := a.buildSkills(ctx, sc)
		return section, err == nil, err
	case SectionEducation:
		section, err := a.buildEducation(ctx, sc)
		return section, err == nil, err
	case SectionSummary:
		return Section{}, false, nil
	case SectionCustom:
		// custom 暂无条目来源，保留空区块占位。
		return Section{Kind: SectionCustom, Label: sc.Label}, true, nil
	default:
		return Section{}, false, fmt.Errorf("unknown section kind %q", sc.Kind)
	}
}

func (a *Assembler) buildExperience(ctx context.Context, sc SectionConfig) (Section, error) {
	var rows []database.Experience
	if err := a.db.WithContext(ctx).Order("sort_order asc").Find(&rows).Error; err != nil {
		return Section{}, fmt.Errorf("query experiences: %w", err)
	}
	rows = filterByIDs(rows, sc.ItemIDs, func(r database.Experience) uint { return r.ID })

	items := make([]ExperienceItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, ExperienceItem{
			Title:       r.Title,
			Company:     r.Company,
			Location:    r.Location,
			DateRange:   FormatDateRange(r.StartDate, r.EndDate, r.Current),
			Description: r.Description,
		})
	}
	return Section{Kind: SectionExperience, Label: sc.Label, Experience: items}, nil
}

func (a *Assembler) buildProjects(ctx context.Context, sc SectionConfig) (Section, error) {
	var rows []database.Project
	if err := a.db.WithContext(ctx).Order("sort_order asc").Find(&rows).Error; err != nil {
		return Section{}, fmt.Errorf("query projects: %w", err)
	}
	rows = filterByIDs(rows, sc.ItemIDs, func(r database.Project) uint { return r.ID })

	items := make([]ProjectItem, 0, len(rows))
	for _, r := range rows {
		var tags []string
		if len(r.Tags) > 0 {
			if err := json.Unmarshal(r.Tags, &tags); err != nil {
				return Section{}, fmt.Errorf("decode project %d tags: %w", r.ID, err)
			}
		}
		items = append(items, ProjectItem{
			Title:       r.Title,
			Description: r.Description,
			Tags:        tags,
			LiveURL:     r.LiveURL,
			RepoURL:     r.RepoURL,
		})
	}
	return Section{Kind: SectionProjects, Label: sc.Label, Projects: items}, nil
}

// buildSkills 是两级装配：先取分类，再把技能按 GroupID 挂到存活的分类下。
// ItemIDs 只作用于分类这一层。
func (a *Assembler) buildSkills(ctx context.Context, sc SectionConfig) (Section, error) {
	var groups []database.SkillGroup
	if err := a.db.WithContext(ctx).Order("sort_order asc").Find(&groups).Error; err != nil {
		return Section{}, fmt.Errorf("query skill groups: %w", err)
	}
	var skills []database.Skill
	if err := a.db.WithContext(ctx).Order("sort_order asc").Find(&skills).Error; err != nil {
		return Section{}, fmt.Errorf("query skills: %w", err)
	}

	groups = filterByIDs(groups, sc.ItemIDs, func(g database.SkillGroup) uint { return g.ID })

	byGroup := make(map[uint][]string, len(groups))
	for _, s := range skills {
		byGroup[s.GroupID] = append(byGroup[s.GroupID], s.Name)
	}

	items := make([]SkillGroupItem, 0, len(groups))
	for _, g := range groups {
		items = append(items, SkillGroupItem{
			Category: g.Category,
			Skills:   byGroup[g.ID],
		})
	}
	return Section{Kind: SectionSkills, Label: sc.Label, SkillGroups: items}, nil
}

func (a *Assembler) buildEducation(ctx context.Context, sc SectionConfig) (Section, error) {
	var rows []database.Education
	if err := a.db.WithContext(ctx).Order("sort_order asc").Find(&rows).Error; err != nil {
		return Section{}, fmt.Errorf("query educations: %w", err)
	}
	rows = filterByIDs(rows, sc.ItemIDs, func(r database.Education) uint { return r.ID })

	items := make([]EducationItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, EducationItem{
			Institution: r.Institution,
			Degree:      r.Degree,
			Field:       r.Field,
			DateRange:   FormatDateRange(r.StartDate, r.EndDate, false),
			Description: r.Description,
		})
	}
	return Section{Kind: SectionEducation, Label: sc.Label, Education: items}, nil
}

// filterByIDs 按允许列表过滤行，保留集合自身的排序；ids 为空表示不过滤。
func filterByIDs[T any](rows []T, ids []uint, id func(T) uint) []T {
	if len(ids) == 0 {
		return rows
	}
	allow := make(map[uint]struct{}, len(ids))
	for _, v := range ids {
		allow[v] = struct{}{}
	}
	kept := make([]T, 0, len(rows))
	for _, r := range rows {
		if _, ok := allow[id(r)]; ok {
			kept = append(kept, r)
		}
	}
	return kept
}

func decodeStylePatch(raw []byte) (*StylePatch, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var patch StylePatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, err
	}
	return &patch, nil
}

func decodeSectionConfigs(raw []byte) ([]SectionConfig, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var configs []SectionConfig
	if err := json.Unmarshal(raw, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}
