package transform

import (
	"container/list"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/chao921125/scroll-seamless-sub000/direction"
)

// ErrUnsupportedDirection is returned when a translation is requested for an
// unknown direction tag.
var ErrUnsupportedDirection = fmt.Errorf("unsupported direction")

// ErrNilNode is returned when an applier receives a missing node.
var ErrNilNode = fmt.Errorf("nil render node")

// translationCacheSize bounds the descriptor cache. Positions repeat heavily
// in step-wait mode and at rest, rarely during continuous travel.
const translationCacheSize = 256

type cacheKey struct {
	pos float64
	dir direction.Direction
}

// translationCache is an LRU map keyed by (position, direction).
type translationCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*list.Element
	order   *list.List // front = most recent
}

type cacheEntry struct {
	key  cacheKey
	desc string
}

func newTranslationCache() *translationCache {
	return &translationCache{
		entries: make(map[cacheKey]*list.Element),
		order:   list.New(),
	}
}

func (c *translationCache) get(key cacheKey) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).desc, true
}

func (c *translationCache) put(key cacheKey, desc string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).desc = desc
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, desc: desc})
	if c.order.Len() > translationCacheSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

var descCache = newTranslationCache()

// errorCount tracks apply failures across the process for diagnostics.
var errorCount atomic.Uint64

// ErrorCount returns the cumulative number of apply failures handled with a
// fallback.
func ErrorCount() uint64 {
	return errorCount.Load()
}

// formatPx renders a pixel value without trailing float noise: integral
// values print as integers, others with up to two decimals.
func formatPx(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ToTranslationString maps a logical position and direction to the
// translation descriptor. Forward directions negate the sign so rendered
// offsets run non-positive as the position grows; reverse directions keep
// the stored sign. This asymmetry is load-bearing: the continuity manager
// inverts it when synchronizing logical to rendered positions.
func ToTranslationString(pos float64, dir direction.Direction, useCache bool) (string, error) {
	cfg, err := direction.GetConfig(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDirection, dir)
	}

	key := cacheKey{pos: pos, dir: dir}
	if useCache {
		if desc, ok := descCache.get(key); ok {
			return desc, nil
		}
	}

	rendered := pos
	if !cfg.IsReverse {
		rendered = -pos
	}
	desc := cfg.TranslateProp + "(" + formatPx(rendered) + "px)"

	if useCache {
		descCache.put(key, desc)
	}
	return desc, nil
}

// RenderedOffset returns the numeric offset a logical position renders at,
// applying the same sign rule as ToTranslationString.
func RenderedOffset(pos float64, cfg direction.Config) float64 {
	if cfg.IsReverse {
		return pos
	}
	return -pos
}

// LogicalFromRendered inverts RenderedOffset: given a parsed rendered
// translation it recovers the logical position for the direction.
func LogicalFromRendered(rendered float64, cfg direction.Config) float64 {
	if cfg.IsReverse {
		return rendered
	}
	return -rendered
}

// ApplySingle writes one translation descriptor to a node, optionally with
// extra positional attributes. A missing node counts an error and is
// otherwise ignored so a partially torn-down track never panics the frame
// loop.
func ApplySingle(node Node, desc string, extraAttrs map[string]float64) error {
	if node == nil {
		errorCount.Add(1)
		return ErrNilNode
	}
	if err := node.SetTranslation(desc); err != nil {
		errorCount.Add(1)
		// Neutral fallback keeps the node renderable at its layout position.
		_ = node.SetTranslation("")
		return fmt.Errorf("apply translation: %w", err)
	}
	for prop, px := range extraAttrs {
		if err := node.SetPositionAttr(prop, px); err != nil {
			errorCount.Add(1)
			return fmt.Errorf("apply attr %s: %w", prop, err)
		}
	}
	return nil
}

// BatchUpdate pairs a node with the descriptor to apply.
type BatchUpdate struct {
	Node Node
	Desc string
}

// BatchResult reports the outcome of ApplyBatch.
type BatchResult struct {
	Success      bool
	Applied      int
	Errors       []error
	FallbackUsed bool
}

// ApplyBatch applies many translation updates, collecting partial failures
// instead of aborting. A failed item is retried once through the degraded
// single-node path before being reported.
func ApplyBatch(updates []BatchUpdate) BatchResult {
	res := BatchResult{Success: true}
	for i, u := range updates {
		if u.Node == nil {
			errorCount.Add(1)
			res.Errors = append(res.Errors, fmt.Errorf("update %d: %w", i, ErrNilNode))
			res.Success = false
			continue
		}
		if err := u.Node.SetTranslation(u.Desc); err != nil {
			res.FallbackUsed = true
			if ferr := ApplySingle(u.Node, u.Desc, nil); ferr != nil {
				res.Errors = append(res.Errors, fmt.Errorf("update %d: %w", i, ferr))
				res.Success = false
				continue
			}
		}
		res.Applied++
	}
	return res
}

// ApplySeamlessPair positions both blocks of a track in one call. Block B is
// always exactly one content extent from block A, on the side new content
// enters: through the sign rule its rendered offset comes out at
// blockA+contentSize for either direction family, so the pair tiles the
// container for the whole wrap cycle.
func ApplySeamlessPair(blockA, blockB Node, pos, contentSize float64, dir direction.Direction) error {
	cfg, err := direction.GetConfig(dir)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedDirection, dir)
	}

	posB := pos - contentSize
	if cfg.IsReverse {
		posB = pos + contentSize
	}

	descA, err := ToTranslationString(pos, dir, true)
	if err != nil {
		return err
	}
	descB, err := ToTranslationString(posB, dir, true)
	if err != nil {
		return err
	}

	if err := ApplySingle(blockA, descA, nil); err != nil {
		return err
	}
	return ApplySingle(blockB, descB, nil)
}
