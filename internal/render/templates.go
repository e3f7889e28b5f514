package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"portfolio/internal/resume"
)

// 内置模板 Key，和种子数据里的 resume_templates 行保持一致。
const (
	TemplateClassic = "classic"
	TemplateModern  = "modern"
)

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// classicTemplateString 是单栏经典排版。
// 区块类型是封闭集合，按 Kind 逐一分支渲染。
const classicTemplateString = `
<style>
.resume { width: 100%; }
.resume header { border-bottom: 2px solid {{.Style.AccentColor}}; padding-bottom: 8px; margin-bottom: 14px; }
.resume header h1 { font-size: 2.2em; }
.resume .headline { color: {{.Style.AccentColor}}; font-weight: 500; margin-top: 2px; }
.resume .contact { margin-top: 6px; font-size: 0.9em; }
.resume .contact span + span::before { content: " · "; }
.resume section { margin-bottom: 14px; page-break-inside: auto; }
.resume section h2 { font-size: 1.15em; text-transform: uppercase; letter-spacing: 0.06em; color: {{.Style.AccentColor}}; margin-bottom: 6px; }
.resume .item { margin-bottom: 10px; }
.resume .item-head { display: flex; justify-content: space-between; }
.resume .item-head .where { font-weight: 600; }
.resume .item-head .when { color: #555555; }
.resume .item .sub { font-style: italic; }
.resume .item p { margin-top: 2px; white-space: pre-line; }
.resume .tags { margin-top: 2px; font-size: 0.85em; color: {{.Style.AccentColor}}; }
.resume .skills-row { margin-bottom: 4px; }
.resume .skills-row .cat { font-weight: 600; }
</style>
<div class="resume">
<header>
<h1>{{.Profile.Name}}</h1>
{{- if .Profile.Headline}}
<p class="headline">{{.Profile.Headline}}</p>
{{- end}}
<p class="contact">
{{- if .Profile.Email}}<span>{{.Profile.Email}}</span>{{end}}
{{- if .Profile.Phone}}<span>{{.Profile.Phone}}</span>{{end}}
{{- if .Profile.Location}}<span>{{.Profile.Location}}</span>{{end}}
{{- if .Profile.Website}}<span>{{.Profile.Website}}</span>{{end}}
{{- if .Profile.GitHub}}<span>{{.Profile.GitHub}}</span>{{end}}
{{- if .Profile.LinkedIn}}<span>{{.Profile.LinkedIn}}</span>{{end}}
</p>
</header>
{{- if .Summary}}
<section>
<h2>Summary</h2>
<p>{{.Summary}}</p>
</section>
{{- end}}
{{- range .Sections}}
<section>
<h2>{{.Label}}</h2>
{{- if eq .Kind "experience"}}
{{- range .Experience}}
<div class="item">
<div class="item-head"><span class="where">{{.Title}}</span><span class="when">{{.DateRange}}</span></div>
<div class="sub">{{.Company}}{{if .Location}} · {{.Location}}{{end}}</div>
{{- if .Description}}<p>{{.Description}}</p>{{end}}
</div>
{{- end}}
{{- else if eq .Kind "projects"}}
{{- range .Projects}}
<div class="item">
<div class="item-head"><span class="where">{{.Title}}</span></div>
{{- if .Description}}<p>{{.Description}}</p>{{end}}
{{- if .Tags}}<div class="tags">{{join .Tags " / "}}</div>{{end}}
{{- if or .LiveURL .RepoURL}}<div class="tags">{{if .LiveURL}}{{.LiveURL}}{{end}}{{if and .LiveURL .RepoURL}} · {{end}}{{if .RepoURL}}{{.RepoURL}}{{end}}</div>{{end}}
</div>
{{- end}}
{{- else if eq .Kind "skills"}}
{{- range .SkillGroups}}
<div class="skills-row"><span class="cat">{{.Category}}:</span> {{join .Skills ", "}}</div>
{{- end}}
{{- else if eq .Kind "education"}}
{{- range .Education}}
<div class="item">
<div class="item-head"><span class="where">{{.Institution}}</span><span class="when">{{.DateRange}}</span></div>
<div class="sub">{{.Degree}}{{if .Field}}, {{.Field}}{{end}}</div>
{{- if .Description}}<p>{{.Description}}</p>{{end}}
</div>
{{- end}}
{{- end}}
</section>
{{- end}}
</div>
`

// modernTemplateString 用主色块头部加双栏信息行，内容结构与 classic 一致。
const modernTemplateString = `
<style>
.resume { width: 100%; }
.resume header { background: {{.Style.PrimaryColor}}; color: #ffffff; padding: 18px 20px; margin-bottom: 16px; }
.resume header h1 { font-size: 2.4em; letter-spacing: 0.02em; }
.resume .headline { color: {{.Style.AccentColor}}; font-weight: 600; margin-top: 4px; }
.resume .contact { margin-top: 8px; font-size: 0.85em; opacity: 0.92; }
.resume .contact span + span::before { content: "  |  "; white-space: pre; }
.resume section { margin: 0 20px 14px; }
.resume section h2 { font-size: 1.05em; color: {{.Style.AccentColor}}; border-left: 3px solid {{.Style.AccentColor}}; padding-left: 8px; margin-bottom: 8px; }
.resume .item { margin-bottom: 10px; }
.resume .item-head { display: flex; justify-content: space-between; }
.resume .item-head .where { font-weight: 600; }
.resume .item-head .when { color: #666666; font-size: 0.9em; }
.resume .item .sub { color: #444444; }
.resume .item p { margin-top: 2px; white-space: pre-line; }
.resume .tag { display: inline-block; background: #f1f5f9; color: {{.Style.PrimaryColor}}; font-size: 0.8em; padding: 1px 6px; margin: 2px 4px 0 0; border-radius: 3px; }
.resume .skills-row { margin-bottom: 4px; }
.resume .skills-row .cat { font-weight: 600; color: {{.Style.PrimaryColor}}; }
</style>
<div class="resume">
<header>
<h1>{{.Profile.Name}}</h1>
{{- if .Profile.Headline}}
<p class="headline">{{.Profile.Headline}}</p>
{{- end}}
<p class="contact">
{{- if .Profile.Email}}<span>{{.Profile.Email}}</span>{{end}}
{{- if .Profile.Phone}}<span>{{.Profile.Phone}}</span>{{end}}
{{- if .Profile.Location}}<span>{{.Profile.Location}}</span>{{end}}
{{- if .Profile.Website}}<span>{{.Profile.Website}}</span>{{end}}
{{- if .Profile.GitHub}}<span>{{.Profile.GitHub}}</span>{{end}}
{{- if .Profile.LinkedIn}}<span>{{.Profile.LinkedIn}}</span>{{end}}
</p>
</header>
{{- if .Summary}}
<section>
<h2>Profile</h2>
<p>{{.Summary}}</p>
</section>
{{- end}}
{{- range .Sections}}
<section>
<h2>{{.Label}}</h2>
{{- if eq .Kind "experience"}}
{{- range .Experience}}
<div class="item">
<div class="item-head"><span class="where">{{.Title}} · {{.Company}}</span><span class="when">{{.DateRange}}</span></div>
{{- if .Location}}<div class="sub">{{.Location}}</div>{{end}}
{{- if .Description}}<p>{{.Description}}</p>{{end}}
</div>
{{- end}}
{{- else if eq .Kind "projects"}}
{{- range .Projects}}
<div class="item">
<div class="item-head"><span class="where">{{.Title}}</span></div>
{{- if .Description}}<p>{{.Description}}</p>{{end}}
{{- range .Tags}}<span class="tag">{{.}}</span>{{end}}
</div>
{{- end}}
{{- else if eq .Kind "skills"}}
{{- range .SkillGroups}}
<div class="skills-row"><span class="cat">{{.Category}}</span> · {{join .Skills ", "}}</div>
{{- end}}
{{- else if eq .Kind "education"}}
{{- range .Education}}
<div class="item">
<div class="item-head"><span class="where">{{.Institution}}</span><span class="when">{{.DateRange}}</span></div>
<div class="sub">{{.Degree}}{{if .Field}}, {{.Field}}{{end}}</div>
{{- if .Description}}<p>{{.Description}}</p>{{end}}
</div>
{{- end}}
{{- end}}
</section>
{{- end}}
</div>
`

var (
	classicTmpl = template.Must(template.New(TemplateClassic).Funcs(templateFuncs).Parse(classicTemplateString))
	modernTmpl  = template.Must(template.New(TemplateModern).Funcs(templateFuncs).Parse(modernTemplateString))
)

func renderClassic(data *resume.Data) (string, error) {
	return executeTemplate(classicTmpl, data)
}

func renderModern(data *resume.Data) (string, error) {
	return executeTemplate(modernTmpl, data)
}

func executeTemplate(tmpl *template.Template, data *resume.Data) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %q: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
