package resume

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"portfolio/internal/database"
)

type fakeRenderer struct {
	err    error
	called int
}

func (r *fakeRenderer) Render(templateKey string, data *Data) (string, error) {
	r.called++
	if r.err != nil {
		return "", r.err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<html><h1>%s</h1><p>%s</p>", data.Profile.Name, templateKey)
	for _, section := range data.Sections {
		fmt.Fprintf(&b, "<h2>%s</h2>", section.Label)
		for _, item := range section.Experience {
			fmt.Fprintf(&b, "<h3>%s</h3>", item.Title)
		}
		for _, group := range section.SkillGroups {
			fmt.Fprintf(&b, "<h3>%s</h3>", group.Category)
		}
	}
	b.WriteString("</html>")
	return b.String(), nil
}

type fakeExporter struct {
	err    error
	called int
	html   string
	size   PageSize
}

func (e *fakeExporter) Export(_ context.Context, html string, size PageSize, _ Margins) ([]byte, error) {
	e.called++
	e.html = html
	e.size = size
	if e.err != nil {
		return nil, e.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

func TestGenerate_EndToEnd(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	first := database.Experience{Title: "Platform Engineer", Company: "Acme", SortOrder: 0}
	second := database.Experience{Title: "SRE", Company: "Beta", SortOrder: 1}
	for _, row := range []*database.Experience{&first, &second} {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed experience: %v", err)
		}
	}
	group := database.SkillGroup{Category: "Languages"}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("seed skill group: %v", err)
	}
	for i, name := range []string{"Go", "SQL"} {
		skill := database.Skill{GroupID: group.ID, Name: name, SortOrder: i}
		if err := db.Create(&skill).Error; err != nil {
			t.Fatalf("seed skill: %v", err)
		}
	}

	cfg := database.ResumeConfig{
		Name:          "default",
		CustomSummary: "Summary line.",
		Sections: mustJSON(t, []SectionConfig{
			{Kind: SectionExperience, Enabled: true, SortOrder: 0, Label: "Experience"},
			{Kind: SectionSkills, Enabled: true, SortOrder: 1, Label: "Skills"},
			{Kind: SectionSummary, Enabled: true, SortOrder: 2, Label: "Summary"},
		}),
	}
	if err := db.Create(&cfg).Error; err != nil {
		t.Fatalf("seed config: %v", err)
	}

	renderer := &fakeRenderer{}
	exporter := &fakeExporter{}
	storage := newFakeStorage()
	store := NewVersionStore(db, storage, nil)
	pipeline := NewPipeline(db, renderer, exporter, store, nil, nil, nil)

	result, err := pipeline.Generate(context.Background(), cfg.ID, "corr-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if result.VersionID == "" {
		t.Error("empty version id")
	}
	if exporter.called != 1 {
		t.Fatalf("exporter should run exactly once, ran %d times", exporter.called)
	}
	for _, want := range []string{"Platform Engineer", "SRE", "Languages", "Jane Doe"} {
		if !strings.Contains(exporter.html, want) {
			t.Errorf("rendered html missing %q", want)
		}
	}
	if exporter.size != PageA4 {
		t.Errorf("unexpected page size %q", exporter.size)
	}
	if _, ok := storage.uploaded[result.Path]; !ok {
		t.Errorf("pdf not uploaded at %q", result.Path)
	}

	var version database.ResumeVersion
	if err := db.Where("version_id = ?", result.VersionID).First(&version).Error; err != nil {
		t.Fatalf("version row missing: %v", err)
	}
	if version.ConfigID != cfg.ID {
		t.Errorf("version bound to wrong config: %d", version.ConfigID)
	}
}

func TestGenerate_ConfigNotFound(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	renderer := &fakeRenderer{}
	exporter := &fakeExporter{}
	store := NewVersionStore(db, newFakeStorage(), nil)
	pipeline := NewPipeline(db, renderer, exporter, store, nil, nil, nil)

	_, err := pipeline.Generate(context.Background(), 9999, "corr-2")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
	if renderer.called != 0 || exporter.called != 0 {
		t.Error("later stages must not run when config is missing")
	}
}

func TestGenerate_RenderFailureShortCircuits(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	cfg := database.ResumeConfig{Name: "default"}
	if err := db.Create(&cfg).Error; err != nil {
		t.Fatalf("seed config: %v", err)
	}

	renderErr := errors.New("template not registered")
	renderer := &fakeRenderer{err: renderErr}
	exporter := &fakeExporter{}
	storage := newFakeStorage()
	store := NewVersionStore(db, storage, nil)
	pipeline := NewPipeline(db, renderer, exporter, store, nil, nil, nil)

	_, err := pipeline.Generate(context.Background(), cfg.ID, "corr-3")
	if !errors.Is(err, renderErr) {
		t.Fatalf("expected render error to surface, got %v", err)
	}
	if exporter.called != 0 {
		t.Error("exporter must not run after render failure")
	}
	if len(storage.uploaded) != 0 {
		t.Error("nothing should be uploaded after render failure")
	}
}

func TestGenerate_ExportFailureLeavesNoArtifacts(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db)

	cfg := database.ResumeConfig{Name: "default"}
	if err := db.Create(&cfg).Error; err != nil {
		t.Fatalf("seed config: %v", err)
	}

	exportErr := errors.New("browser crashed")
	renderer := &fakeRenderer{}
	exporter := &fakeExporter{err: exportErr}
	storage := newFakeStorage()
	store := NewVersionStore(db, storage, nil)
	pipeline := NewPipeline(db, renderer, exporter, store, nil, nil, nil)

	_, err := pipeline.Generate(context.Background(), cfg.ID, "corr-4")
	if !errors.Is(err, exportErr) {
		t.Fatalf("expected export error to surface, got %v", err)
	}

	var count int64
	if err := db.Model(&database.ResumeVersion{}).Count(&count).Error; err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if count != 0 || len(storage.uploaded) != 0 {
		t.Errorf("no artifacts expected after export failure, rows=%d uploads=%v", count, storage.uploaded)
	}
}
