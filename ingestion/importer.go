package ingestion

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/lorekeep/core"
	"gopkg.in/yaml.v3"
)

// DefaultImportance is given to imported entries that do not set one.
const DefaultImportance = 0.5

// ParseText reads one entry per line in the form "[tag1,tag2] content".
// Blank lines and lines starting with '#' are skipped. A line without a
// leading bracket becomes an untagged entry.
func ParseText(r io.Reader) ([]Item, error) {
	var items []Item
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var label, content string
		if strings.HasPrefix(line, "[") {
			end := strings.Index(line, "]")
			if end < 0 {
				return nil, fmt.Errorf("%w: line %d: missing ']'", ErrMalformedLine, lineNo)
			}
			label = strings.TrimSpace(line[1:end])
			content = strings.TrimSpace(line[end+1:])
		} else {
			content = line
		}
		if content == "" {
			return nil, fmt.Errorf("%w: line %d: no content", ErrMalformedLine, lineNo)
		}

		items = append(items, Item{Entry: &core.Entry{
			Tag:        label,
			Tags:       core.ParseTags(label),
			Content:    content,
			Importance: DefaultImportance,
			Enabled:    true,
		}})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// yamlEntry is the YAML form of an imported entry.
type yamlEntry struct {
	ID          string     `yaml:"id"`
	Tag         string     `yaml:"tag"`
	Tags        []string   `yaml:"tags"`
	Content     string     `yaml:"content"`
	Importance  *float64   `yaml:"importance"`
	Enabled     *bool      `yaml:"enabled"`
	TargetActor string     `yaml:"target_actor"`
	Flags       *yamlFlags `yaml:"flags"`
}

type yamlFlags struct {
	CanBeExtracted bool   `yaml:"can_be_extracted"`
	CanBeMatched   bool   `yaml:"can_be_matched"`
	MatchMode      string `yaml:"match_mode"`
}

// ParseYAML reads a YAML list of entries.
//
//	- id: forge
//	  tag: fire
//	  tags: [fire, forge]
//	  content: The forge burns bright
//	  importance: 1
//	  flags:
//	    can_be_extracted: true
//	    match_mode: all
//
// Missing tags are parsed from tag, missing importance defaults to
// DefaultImportance and entries are enabled unless enabled is false.
func ParseYAML(r io.Reader) ([]Item, error) {
	var docs []yamlEntry
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	items := make([]Item, 0, len(docs))
	for i, doc := range docs {
		entry := &core.Entry{
			ID:            strings.TrimSpace(doc.ID),
			Tag:           strings.TrimSpace(doc.Tag),
			Content:       strings.TrimSpace(doc.Content),
			Importance:    DefaultImportance,
			Enabled:       true,
			TargetActorID: strings.TrimSpace(doc.TargetActor),
			Tags:          core.ParseTags(strings.Join(doc.Tags, ",")),
		}
		if len(entry.Tags) == 0 {
			entry.Tags = core.ParseTags(entry.Tag)
		}
		if doc.Importance != nil {
			entry.Importance = *doc.Importance
		}
		if doc.Enabled != nil {
			entry.Enabled = *doc.Enabled
		}

		item := Item{Entry: entry}
		if doc.Flags != nil {
			mode, err := core.ParseMatchMode(doc.Flags.MatchMode)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d: %w", ErrMalformedDocument, i, err)
			}
			item.Flags = &core.ExtendedFlags{
				CanBeExtracted: doc.Flags.CanBeExtracted,
				CanBeMatched:   doc.Flags.CanBeMatched,
				MatchMode:      mode,
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// ImportText ingests a text library and syncs the vector index.
func (p *Pipeline) ImportText(ctx context.Context, r io.Reader) ([]*core.Entry, error) {
	items, err := ParseText(r)
	if err != nil {
		return nil, err
	}
	return p.importItems(ctx, items)
}

// ImportYAML ingests a YAML library and syncs the vector index.
func (p *Pipeline) ImportYAML(ctx context.Context, r io.Reader) ([]*core.Entry, error) {
	items, err := ParseYAML(r)
	if err != nil {
		return nil, err
	}
	return p.importItems(ctx, items)
}

func (p *Pipeline) importItems(ctx context.Context, items []Item) ([]*core.Entry, error) {
	added, err := p.Ingest(ctx, items...)
	if err != nil {
		return nil, err
	}
	if _, err := p.Sync(ctx); err != nil {
		// Entries are stored; the next resync retries the missing vectors.
		p.logger.Warn("vector sync after import incomplete", "err", err)
	}
	p.logger.Info("library imported", "entries", len(added))
	return added, nil
}
