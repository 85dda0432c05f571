package insight

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/text/language"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
)

// SampleSize bounds how many messages are quoted into the prompt.
const SampleSize = 100

// Template sources, in fallback order.
const (
	SourceRequested = "requested"
	SourceDefault   = "default"
	SourceEmbedded  = "embedded"
)

const systemPrompt = `You analyze two-person chat conversations and describe the participants and their relationship.
Respond with a single JSON object and nothing else. Every field in the requested schema is required.`

//go:embed templates/minimal.tmpl
var embedded embed.FS

// Prompt is a ready-to-send request for a text generator.
type Prompt struct {
	System  string `json:"system"`
	User    string `json:"user"`
	Locale  string `json:"locale"`
	Source  string `json:"source"`
	Sender1 string `json:"sender1"`
	Sender2 string `json:"sender2"`
	Sampled int    `json:"sampled"`
}

// Text joins the system and user parts for generators without a separate
// system channel.
func (p *Prompt) Text() string {
	return p.System + "\n\n" + p.User
}

type promptData struct {
	Sender1       string
	Sender2       string
	Locale        string
	TotalMessages int
	SampleSize    int
	Transcript    string
}

// Builder renders locale templates named <tag>.tmpl from dir.
type Builder struct {
	fs            afero.Fs
	dir           string
	defaultLocale string
	log           zerolog.Logger
}

// NewBuilder returns a Builder reading templates from dir on fs.
func NewBuilder(fs afero.Fs, dir, defaultLocale string, log zerolog.Logger) *Builder {
	return &Builder{fs: fs, dir: dir, defaultLocale: defaultLocale, log: log}
}

// Build renders the prompt for msgs in locale. Lookup falls back from the
// requested locale to the default locale and then to the embedded template,
// so a missing or broken template directory never fails the build.
func (b *Builder) Build(msgs []chat.Message, locale string) (*Prompt, error) {
	tmpl, resolved, source := b.resolve(locale)

	s1, s2 := TopSenders(msgs)
	sample := msgs
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	data := promptData{
		Sender1:       s1,
		Sender2:       s2,
		Locale:        resolved,
		TotalMessages: len(msgs),
		SampleSize:    len(sample),
		Transcript:    transcript(sample),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render prompt %s: %w", resolved, err)
	}
	buf.WriteString("\n\n")
	buf.WriteString(SchemaDescription(s1, s2))

	return &Prompt{
		System:  systemPrompt,
		User:    buf.String(),
		Locale:  resolved,
		Source:  source,
		Sender1: s1,
		Sender2: s2,
		Sampled: len(sample),
	}, nil
}

func (b *Builder) resolve(locale string) (*template.Template, string, string) {
	if tmpl, tag, ok := b.lookup(locale); ok {
		return tmpl, tag, SourceRequested
	}
	if tmpl, tag, ok := b.lookup(b.defaultLocale); ok {
		b.log.Warn().Str("locale", locale).Str("fallback", tag).Msg("prompt template missing, using default locale")
		return tmpl, tag, SourceDefault
	}
	b.log.Warn().Str("locale", locale).Str("default_locale", b.defaultLocale).Msg("prompt templates missing, using embedded template")
	tmpl := template.Must(template.ParseFS(embedded, "templates/minimal.tmpl"))
	return tmpl, "und", SourceEmbedded
}

// lookup matches locale against the template files present in dir.
func (b *Builder) lookup(locale string) (*template.Template, string, bool) {
	if b.fs == nil || locale == "" {
		return nil, "", false
	}
	want, err := language.Parse(locale)
	if err != nil {
		return nil, "", false
	}

	tags, names := b.available()
	if len(tags) == 0 {
		return nil, "", false
	}
	_, idx, conf := language.NewMatcher(tags).Match(want)
	if conf == language.No {
		return nil, "", false
	}

	name := names[idx]
	raw, err := afero.ReadFile(b.fs, path.Join(b.dir, name))
	if err != nil {
		b.log.Warn().Err(err).Str("template", name).Msg("read prompt template")
		return nil, "", false
	}
	tmpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		b.log.Warn().Err(err).Str("template", name).Msg("parse prompt template")
		return nil, "", false
	}
	return tmpl, tags[idx].String(), true
}

func (b *Builder) available() ([]language.Tag, []string) {
	infos, err := afero.ReadDir(b.fs, b.dir)
	if err != nil {
		return nil, nil
	}
	var tags []language.Tag
	var names []string
	for _, fi := range infos {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), ".tmpl") {
			continue
		}
		tag, err := language.Parse(strings.TrimSuffix(fi.Name(), ".tmpl"))
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		names = append(names, fi.Name())
	}
	return tags, names
}

// TopSenders returns the two senders with the most messages. Ties go to
// the sender seen first.
func TopSenders(msgs []chat.Message) (string, string) {
	counts := make(map[string]int)
	var order []string
	for _, m := range msgs {
		if _, ok := counts[m.Sender]; !ok {
			order = append(order, m.Sender)
		}
		counts[m.Sender]++
	}
	first, second := -1, -1
	for i, name := range order {
		switch {
		case first < 0 || counts[name] > counts[order[first]]:
			first, second = i, first
		case second < 0 || counts[name] > counts[order[second]]:
			second = i
		}
	}
	var s1, s2 string
	if first >= 0 {
		s1 = order[first]
	}
	if second >= 0 {
		s2 = order[second]
	}
	return s1, s2
}

func transcript(msgs []chat.Message) string {
	var sb strings.Builder
	for _, m := range msgs {
		if m.HasValidDate {
			sb.WriteString("[" + m.Timestamp.Format("2006-01-02 15:04") + "] ")
		}
		sb.WriteString(m.Sender)
		sb.WriteString(": ")
		sb.WriteString(strings.ReplaceAll(m.Text, "\n", " / "))
		sb.WriteByte('\n')
	}
	return sb.String()
}
