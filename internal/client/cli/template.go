package cli

import (
	"text/template"
	"time"
)

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"ago": func(d time.Duration) string { return d.Round(time.Second).String() },
	"rfc": func(t time.Time) string { return t.Local().Format(time.RFC3339) },
}

const planTemplate = `
=== {{if .Title}}{{.Title}}{{else}}(untitled plan){{end}} ===
{{- if .Date }}
Date: {{.Date}}
{{- end}}
{{range $i, $t := .Tasks}}
  {{inc $i}}. [{{if $t.Done}}x{{else}} {{end}}] {{$t.Text}}
{{- else}}
  (no tasks)
{{- end}}
{{- if .Notes }}

Notes: {{.Notes}}
{{- end}}
`

const statusTemplate = `
=== Autosave Status ===

Entity:       {{.Surface}}/{{.ID}}
{{- if .LastSyncedAt.IsZero }}
Last synced:  never
{{- else }}
Last synced:  {{rfc .LastSyncedAt}}
{{- end}}
{{- if .HasBackup }}
Local backup: saved {{ago .BackupAge}} ago ({{rfc .BackupSavedAt}}), {{.BackupBytes}} bytes
{{- else }}
Local backup: none
{{- end}}
`

const helpText = `Commands:
  title <text>   Set the plan title
  date <date>    Set the plan date (YYYY-MM-DD)
  task <text>    Add a task
  done <n>       Toggle task n
  rm <n>         Remove task n
  note <text>    Set the notes
  show           Show the plan
  save           Save to the server now
  status         Show the save status
  quit           Save and exit
`

var (
	planTmpl   = template.Must(template.New("plan").Funcs(templateFuncs).Parse(planTemplate))
	statusTmpl = template.Must(template.New("status").Funcs(templateFuncs).Parse(statusTemplate))
)
