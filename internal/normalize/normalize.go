// Package normalize turns raw extraction output into form-ready field values:
// sanitizing, defaulting, enum mapping and derivation of dependent fields.
package normalize

import (
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/doccollate/constants"
	"github.com/joseph-ayodele/doccollate/internal/entity"
	"github.com/joseph-ayodele/doccollate/internal/fields"
)

// Options tunes a Normalizer. Zero values take defaults.
type Options struct {
	DefaultCategory   string
	CompletionDaysAgo int
	DevMonthsAgo      int
	// Now is the clock used for assessment date defaults.
	Now    func() time.Time
	Logger *slog.Logger
}

// Normalizer applies the sanitize, normalize, pool and derive passes for one
// document at a time. The rng is owned by the caller; a seeded source makes
// the pool picks reproducible.
type Normalizer struct {
	rng  *rand.Rand
	opts Options
}

func New(rng *rand.Rand, opts Options) *Normalizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = constants.DefaultCategory
	}
	if opts.CompletionDaysAgo <= 0 {
		opts.CompletionDaysAgo = 14
	}
	if opts.DevMonthsAgo <= 0 {
		opts.DevMonthsAgo = 5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Normalizer{rng: rng, opts: opts}
}

// Apply returns a normalized copy of data. Only fields in required are
// touched; a nil set means every field.
func (n *Normalizer) Apply(data entity.FieldData, required fields.Set) entity.FieldData {
	out := data.Clone()
	Sanitize(out)
	n.normalize(out, required)
	n.fillFromPools(out, required)
	Derive(out, required)
	n.opts.Logger.Debug("normalize.apply.ok", "fields", len(out))
	return out
}

var boolDefaults = []struct {
	field string
	value bool
}{
	{"assess__support_floppy", false},
	{"assess__support_sound", false},
	{"assess__support_cdrom", false},
	{"assess__support_gpu", false},
	{"assess__support_other", false},
	{"assess__is_self_dev", true},
	{"assess__has_docs", true},
	{"assess__has_source", true},
}

var (
	numberRe  = regexp.MustCompile(`\d+`)
	nonDigits = regexp.MustCompile(`\D+`)
)

var dateFields = []string{"copyright__completion_date", "assess__completion_date", "assess__dev_date"}

func (n *Normalizer) normalize(d entity.FieldData, required fields.Set) {
	for _, bd := range boolDefaults {
		if !required.Has(bd.field) {
			continue
		}
		v, ok := d[bd.field]
		switch {
		case !ok:
			d.SetBool(bd.field, bd.value)
		case v.Kind == entity.KindText:
			d.SetBool(bd.field, ParseBool(v.Text))
		}
	}

	if required.Has("assess__workload") {
		d.SetText("assess__workload", Workload(d.Text("assess__workload")))
	}

	if required.Has("env__memory_req") {
		if digits := nonDigits.ReplaceAllString(d.Text("env__memory_req"), ""); digits != "" {
			d.SetText("env__memory_req", digits+"MB")
		}
	}

	if required.Has("app__product_type_text") {
		src := strings.TrimSpace(d.Text("app__product_type_text"))
		if src == "" {
			src = d.Text("app__product_type")
		}
		d.SetText("app__product_type_text", constants.CanonicalizeProductType(src))
	}

	if required.Has("app__category_assess") {
		d.SetText("app__category_assess", n.Category(d.Text("app__category_assess")))
	}

	if required.Has("env__soft_scale") {
		if s := strings.TrimSpace(d.Text("env__soft_scale")); !slices.Contains([]string{"大", "中", "小"}, s) {
			d.SetText("env__soft_scale", "中")
		}
	}

	setDefault(d, required, "env__database", "PostgreSQL 13")
	setDefault(d, required, "env__os_version", "Ubuntu 22.04 LTS")
	setDefault(d, required, "assess__product_mode_val", "pure")

	mode := strings.ToLower(d.Text("assess__product_mode_val"))
	if mode == "" {
		mode = "pure"
	}
	if _, ok := d["assess__is_pure"]; !ok && required.Has("assess__is_pure") {
		d.SetBool("assess__is_pure", mode != "embedded")
	}
	if _, ok := d["assess__is_embedded"]; !ok && required.Has("assess__is_embedded") {
		d.SetBool("assess__is_embedded", mode == "embedded")
	}

	for _, f := range dateFields {
		if required.Has(f) && !d.Empty(f) {
			d.SetText(f, NormalizeDate(d.Text(f)))
		}
	}
	completion, dev := AssessDates(n.opts.Now(), n.opts.CompletionDaysAgo, n.opts.DevMonthsAgo)
	setDefault(d, required, "assess__completion_date", FormatDate(completion))
	setDefault(d, required, "assess__dev_date", FormatDate(dev))
}

// fillFromPools makes exactly one draw and fills the empty environment fields
// from it.
func (n *Normalizer) fillFromPools(d entity.FieldData, required fields.Set) {
	draw := drawEnv(n.rng)
	for field, value := range draw.values() {
		setDefault(d, required, field, value)
	}
}

// Category maps free text onto the category list, falling back to the
// configured default when there is no unambiguous match.
func (n *Normalizer) Category(s string) string {
	if c, ok := constants.CanonicalizeCategory(s); ok {
		return c
	}
	if strings.TrimSpace(s) != "" {
		n.opts.Logger.Debug("normalize.category.default", "input", s)
	}
	return n.opts.DefaultCategory
}

// ParseBool accepts true/yes/1/y/是, case-insensitively.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y", "是":
		return true
	}
	return false
}

// Workload reads "people, months" from the first two integers of s and
// renders N人*M月. People are clamped to 1..6 and months to at least 1.
func Workload(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "3人*3月"
	}
	people, months := 3, 3
	nums := numberRe.FindAllString(s, 2)
	if len(nums) > 0 {
		people, _ = strconv.Atoi(nums[0])
	}
	if len(nums) > 1 {
		months, _ = strconv.Atoi(nums[1])
	}
	people = max(1, min(people, 6))
	months = max(1, months)
	return fmt.Sprintf("%d人*%d月", people, months)
}

func setDefault(d entity.FieldData, required fields.Set, field, value string) {
	if required.Has(field) && d.Empty(field) {
		d.SetText(field, value)
	}
}
