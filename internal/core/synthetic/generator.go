// Package synthetic builds demo inventory data with a chat model.
//
// Generation runs as a bounded state machine: collect unique item names, describe them in
// batches, pair them with unique IDs and draw the numeric fields. Every model-driven loop has a
// round cap, so a model that stops producing new items ends the run with an error instead of
// spinning forever.
package synthetic

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/models"
)

// Config bounds one generation run.
//
// Target:    minimum number of distinct items.
// BatchSize: items described per model request.
// MaxRounds: cap on model requests per state.
type Config struct {
	Target    int
	BatchSize int
	MaxRounds int
}

type Generator struct {
	chat core.ChatProvider
	cfg  Config
	rng  *rand.Rand
	log  *logger.Logger
}

func NewGenerator(chat core.ChatProvider, cfg Config, log *logger.Logger) *Generator {
	if cfg.Target < 1 {
		cfg.Target = 50
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRounds < 1 {
		cfg.MaxRounds = 8
	}
	seed := uint64(time.Now().UnixNano())
	return &Generator{
		chat: chat,
		cfg:  cfg,
		rng:  rand.New(rand.NewPCG(seed, seed>>1)),
		log:  log.With("service", "SyntheticGenerator"),
	}
}

// Item is a described product before numeric fields are drawn.
type Item struct {
	Name        string
	Description string
}

const systemPrompt = "You are a helpful assistant."

// Generate produces at least Target self-consistent records with unique names and IDs.
func (g *Generator) Generate(ctx context.Context) ([]models.RecordRow, error) {
	history := []models.Message{{Role: models.RoleSystem, Content: systemPrompt}}

	names, history, err := g.collectNames(ctx, history)
	if err != nil {
		return nil, err
	}
	items, err := g.describe(ctx, history, names)
	if err != nil {
		return nil, err
	}
	ids, err := g.uniqueIDs(ctx, len(items))
	if err != nil {
		return nil, err
	}

	rows := make([]models.RecordRow, len(items))
	for i, it := range items {
		rows[i] = g.record(it, ids[i])
	}
	g.log.Info("synthetic records generated", "count", len(rows))
	return rows, nil
}

// collectNames asks for names until Target distinct ones are known. The whole conversation is
// replayed each round so the model can avoid repeating itself.
func (g *Generator) collectNames(ctx context.Context, history []models.Message) ([]string, []models.Message, error) {
	const prompt = "Taking prior history into account, generate a comma separated list of 100 unique fruits " +
		"that you have never mentioned in the past. Just return the list without any additional text. " +
		"Do not add a period at the end, separate every item with a comma."

	seen := map[string]struct{}{}
	var names []string

	for round := 1; len(names) < g.cfg.Target; round++ {
		if round > g.cfg.MaxRounds {
			return nil, nil, fmt.Errorf("synthetic names: only %d of %d unique names after %d rounds",
				len(names), g.cfg.Target, g.cfg.MaxRounds)
		}
		history = append(history, models.Message{Role: models.RoleUser, Content: prompt})
		reply, err := g.chat.Chat(ctx, history, core.ChatOptions{})
		if err != nil {
			return nil, nil, fmt.Errorf("synthetic names: %w", err)
		}
		history = append(history, reply)

		added := 0
		for _, n := range parseList(reply.Content) {
			k := strings.ToLower(n)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			names = append(names, n)
			added++
		}
		g.log.Debug("synthetic names round", "round", round, "added", added, "total", len(names))
	}

	sort.Strings(names)
	return names, history, nil
}

// describe asks for descriptions of the names still lacking one, BatchSize at a time, until
// Target items are described.
func (g *Generator) describe(ctx context.Context, history []models.Message, names []string) ([]Item, error) {
	described := map[string]Item{}

	for round := 1; len(described) < g.cfg.Target; round++ {
		if round > g.cfg.MaxRounds {
			return nil, fmt.Errorf("synthetic descriptions: only %d of %d items described after %d rounds",
				len(described), g.cfg.Target, g.cfg.MaxRounds)
		}

		var batch []string
		for _, n := range names {
			if _, ok := described[strings.ToLower(n)]; !ok {
				batch = append(batch, n)
			}
			if len(batch) == g.cfg.BatchSize {
				break
			}
		}
		if len(batch) == 0 {
			return nil, fmt.Errorf("synthetic descriptions: ran out of names at %d items", len(described))
		}

		list, _ := json.Marshal(batch)
		history = append(history, models.Message{Role: models.RoleUser, Content: fmt.Sprintf(
			"Write a 3-4 sentence description for each of these fruits: %s. "+
				"Return a JSON object that can be parsed and stay consistent with the format returned in the past. "+
				"The JSON object should be a dictionary where each fruit is mapped to its description.", list)})

		reply, err := g.chat.Chat(ctx, history, core.ChatOptions{})
		if err != nil {
			return nil, fmt.Errorf("synthetic descriptions: %w", err)
		}
		history = append(history, reply)

		parsed := parseDescriptions(reply.Content)
		for name, desc := range parsed {
			name, desc = strings.TrimSpace(name), strings.TrimSpace(desc)
			if name == "" || desc == "" {
				continue
			}
			k := strings.ToLower(name)
			if _, ok := described[k]; !ok {
				described[k] = Item{Name: name, Description: desc}
			}
		}
		g.log.Debug("synthetic descriptions round", "round", round, "parsed", len(parsed), "total", len(described))
	}

	items := make([]Item, 0, len(described))
	for _, it := range described {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

var idToken = regexp.MustCompile(`\d+`)

// uniqueIDs asks the model for 4-digit IDs, keeps the valid distinct ones and tops up with random
// unused ones. Model failures here only cost variety, so they are logged, not returned.
func (g *Generator) uniqueIDs(ctx context.Context, n int) ([]string, error) {
	if n > 10000 {
		return nil, fmt.Errorf("synthetic ids: %d items exceed the 4-digit id space", n)
	}

	temp := float32(1.0)
	reply, err := g.chat.Chat(ctx, []models.Message{
		{Role: models.RoleSystem, Content: "You are a helpful assistant. Answer the user request with no extra text."},
		{Role: models.RoleUser, Content: fmt.Sprintf(
			"Give me a list of %d unique integers between 0 and 9999. Each integer must be exactly 4 digits "+
				"(fill the leading digits with 0 if not). Return only a plain list without numbering or extra text.", 2*n)},
	}, core.ChatOptions{Temperature: &temp, MaxTokens: 4096})

	seen := map[string]struct{}{}
	ids := make([]string, 0, n)
	if err != nil {
		g.log.Warn("synthetic id request failed, using random ids", "kind", apperr.KindEnrichmentTransient, "external", true, "error", err)
	} else {
		for _, tok := range idToken.FindAllString(reply.Content, -1) {
			if len(ids) == n {
				break
			}
			if len(tok) > 4 {
				continue
			}
			id := "IN" + strings.Repeat("0", 4-len(tok)) + tok
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	for len(ids) < n {
		id := fmt.Sprintf("IN%04d", g.rng.IntN(10000))
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// record draws the numeric fields. inventory_value is always unit_price * quantity_in_stock.
func (g *Generator) record(it Item, id string) models.RecordRow {
	price := g.between(1, 20)
	qty := g.between(10, 100)
	return models.RecordRow{
		InventoryID:       id,
		Name:              it.Name,
		Description:       it.Description,
		UnitPrice:         fmt.Sprintf("$%d", price),
		QuantityInStock:   strconv.Itoa(qty),
		InventoryValue:    fmt.Sprintf("$%d", price*qty),
		ReorderLevel:      strconv.Itoa(g.between(5, 20)),
		ReorderTimeInDays: strconv.Itoa(g.between(1, 10)),
		QuantityInReorder: strconv.Itoa(g.between(0, 50)),
	}
}

// between returns an int in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}
