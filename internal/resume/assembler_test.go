package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"portfolio/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProfile(t *testing.T, db *gorm.DB) {
	t.Helper()
	profile := database.Profile{Name: "Jane Doe", Headline: "Backend Engineer", Email: "jane@example.com"}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func mustJSON(t *testing.T, v any) datatypes.JSON {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return datatypes.JSON(data)
}

func TestAssemble_MissingProfile(t *testing.T) {
	db := newTestDB(t)
	assembler := NewAssembler(db)

	_, err := assembler.Assemble(context.Background(), &database.ResumeConfig{})
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestAssemble_SectionOrderingAndSummary(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	exp := database.Experience{Title: "Engineer", Company: "Acme", SortOrder: 0}
	if err := db.Create(&exp).Error; err != nil {
		t.Fatalf("seed experience: %v", err)
	}
	group := database.SkillGroup{Category: "Languages", SortOrder: 0}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("seed skill group: %v", err)
	}

	cfg := database.ResumeConfig{
		CustomSummary: "Seasoned backend engineer.",
		Sections: mustJSON(t, []SectionConfig{
			{Kind: SectionExperience, Enabled: true, SortOrder: 2, Label: "Experience"},
			{Kind: SectionSkills, Enabled: true, SortOrder: 1, Label: "Skills"},
			{Kind: SectionEducation, Enabled: false, SortOrder: 3, Label: "Education"},
			{Kind: SectionSummary, Enabled: true, SortOrder: 0, Label: "Summary"},
		}),
	}

	data, err := NewAssembler(db).Assemble(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if data.Summary != "Seasoned backend engineer." {
		t.Errorf("summary not carried over: %q", data.Summary)
	}
	// summary 不产出区块，education 被禁用，剩 skills(1) → experience(2)。
	if len(data.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(data.Sections), data.Sections)
	}
	if data.Sections[0].Kind != SectionSkills || data.Sections[1].Kind != SectionExperience {
		t.Errorf("sections out of order: %v, %v", data.Sections[0].Kind, data.Sections[1].Kind)
	}
	if data.TemplateKey != DefaultTemplateKey {
		t.Errorf("expected default template key, got %q", data.TemplateKey)
	}
	if data.PageSize != PageA4 {
		t.Errorf("expected a4 page size, got %q", data.PageSize)
	}
}

func TestAssemble_ItemFilterPreservesCollectionOrder(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	first := database.Experience{Title: "First", Company: "A", SortOrder: 0}
	second := database.Experience{Title: "Second", Company: "B", SortOrder: 1}
	third := database.Experience{Title: "Third", Company: "C", SortOrder: 2}
	for _, row := range []*database.Experience{&first, &second, &third} {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed experience: %v", err)
		}
	}

	cfg := database.ResumeConfig{
		Sections: mustJSON(t, []SectionConfig{
			// 过滤列表顺序故意反着写，装配结果仍按 sort_order。
			{Kind: SectionExperience, Enabled: true, Label: "Experience", ItemIDs: []uint{third.ID, first.ID}},
		}),
	}

	data, err := NewAssembler(db).Assemble(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	items := data.Sections[0].Experience
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "First" || items[1].Title != "Third" {
		t.Errorf("filter should preserve collection order, got %q, %q", items[0].Title, items[1].Title)
	}
}

func TestAssemble_EmptyItemIDsIncludesAll(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	for i := 0; i < 3; i++ {
		row := database.Education{Institution: fmt.Sprintf("School %d", i), SortOrder: i}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed education: %v", err)
		}
	}

	cfg := database.ResumeConfig{
		Sections: mustJSON(t, []SectionConfig{
			{Kind: SectionEducation, Enabled: true, Label: "Education", ItemIDs: []uint{}},
		}),
	}

	data, err := NewAssembler(db).Assemble(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(data.Sections[0].Education) != 3 {
		t.Fatalf("empty item filter should include everything, got %d items", len(data.Sections[0].Education))
	}
}

func TestAssemble_DanglingTemplateFallsBack(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	missing := uint(9999)
	cfg := database.ResumeConfig{TemplateID: &missing}

	data, err := NewAssembler(db).Assemble(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if data.TemplateKey != DefaultTemplateKey {
		t.Errorf("expected fallback template key, got %q", data.TemplateKey)
	}
	if data.Style != DefaultStyle() {
		t.Errorf("expected default style, got %+v", data.Style)
	}
	if data.PageSize != PageA4 {
		t.Errorf("expected a4 fallback, got %q", data.PageSize)
	}
}

func TestAssemble_TemplateStyleMergedWithOverrides(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	tpl := database.ResumeTemplate{
		Key:      "modern",
		Name:     "Modern",
		PageSize: "letter",
		StyleConfig: mustJSON(t, StylePatch{
			AccentColor: strPtr("#0d9488"),
			FontSizePt:  intPtr(11),
		}),
	}
	if err := db.Create(&tpl).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}

	cfg := database.ResumeConfig{
		TemplateID: &tpl.ID,
		StyleOverrides: mustJSON(t, StylePatch{
			AccentColor: strPtr("#dc2626"),
			LineHeight:  f64Ptr(1.4),
		}),
	}

	data, err := NewAssembler(db).Assemble(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if data.TemplateKey != "modern" {
		t.Errorf("template key not taken from row: %q", data.TemplateKey)
	}
	if data.PageSize != PageLetter {
		t.Errorf("page size not taken from template: %q", data.PageSize)
	}
	if data.Style.AccentColor != "#dc2626" {
		t.Errorf("config override should win over template: %q", data.Style.AccentColor)
	}
	if data.Style.FontSizePt != 11 {
		t.Errorf("template patch should apply where config is silent: %d", data.Style.FontSizePt)
	}
	if data.Style.LineHeight != 1.4 {
		t.Errorf("config line height not applied: %v", data.Style.LineHeight)
	}
	if data.Style.PrimaryColor != DefaultStyle().PrimaryColor {
		t.Errorf("untouched field should keep default: %q", data.Style.PrimaryColor)
	}
}

func TestAssemble_SkillsGrouping(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	languages := database.SkillGroup{Category: "Languages", SortOrder: 0}
	tools := database.SkillGroup{Category: "Tools", SortOrder: 1}
	for _, g := range []*database.SkillGroup{&languages, &tools} {
		if err := db.Create(g).Error; err != nil {
			t.Fatalf("seed skill group: %v", err)
		}
	}
	skills := []database.Skill{
		{GroupID: languages.ID, Name: "Go", SortOrder: 0},
		{GroupID: languages.ID, Name: "SQL", SortOrder: 1},
		{GroupID: tools.ID, Name: "Docker", SortOrder: 0},
	}
	for i := range skills {
		if err := db.Create(&skills[i]).Error; err != nil {
			t.Fatalf("seed skill: %v", err)
		}
	}

	cfg := database.ResumeConfig{
		Sections: mustJSON(t, []SectionConfig{
			{Kind: SectionSkills, Enabled: true, Label: "Skills", ItemIDs: []uint{languages.ID}},
		}),
	}

	data, err := NewAssembler(db).Assemble(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	groups := data.Sections[0].SkillGroups
	if len(groups) != 1 {
		t.Fatalf("expected filtered single group, got %d", len(groups))
	}
	if groups[0].Category != "Languages" {
		t.Errorf("wrong group kept: %q", groups[0].Category)
	}
	if len(groups[0].Skills) != 2 || groups[0].Skills[0] != "Go" || groups[0].Skills[1] != "SQL" {
		t.Errorf("skills not attached in order: %v", groups[0].Skills)
	}
}

func TestAssemble_ProjectTags(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	project := database.Project{
		Title: "portfolio",
		Tags:  mustJSON(t, []string{"go", "gin"}),
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}

	cfg := database.ResumeConfig{
		Sections: mustJSON(t, []SectionConfig{
			{Kind: SectionProjects, Enabled: true, Label: "Projects"},
		}),
	}

	data, err := NewAssembler(db).Assemble(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	items := data.Sections[0].Projects
	if len(items) != 1 {
		t.Fatalf("expected 1 project, got %d", len(items))
	}
	if len(items[0].Tags) != 2 || items[0].Tags[0] != "go" {
		t.Errorf("tags not decoded: %v", items[0].Tags)
	}
}

func TestAssemble_UnknownSectionKind(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	cfg := database.ResumeConfig{
		Sections: mustJSON(t, []SectionConfig{
			{Kind: SectionKind("bogus"), Enabled: true},
		}),
	}

	if _, err := NewAssembler(db).Assemble(context.Background(), &cfg); err == nil {
		t.Fatal("expected error for unknown section kind")
	}
}
