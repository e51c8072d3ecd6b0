package section

import (
	"context"
	"strings"
)

// Labeled is one classified piece of agent output: a section name and a
// non-empty run of text attributed to it.
type Labeled struct {
	Section string `json:"section"`
	Text    string `json:"text"`
}

// Classifier incrementally segments an arbitrarily chunked text stream into
// Labeled pairs using the header markers of a Registry. Chunk boundaries bear
// no relation to header or line boundaries; a header may arrive split across
// any number of chunks.
//
// A Classifier belongs to exactly one generation call. It is not safe for
// concurrent use and holds no state between calls; create a fresh one per
// stream.
type Classifier struct {
	reg     *Registry
	buffer  string
	current *Section
}

// NewClassifier creates a Classifier over the given registry.
func NewClassifier(reg *Registry) *Classifier {
	return &Classifier{reg: reg}
}

// Feed appends one chunk of raw agent output and returns every Labeled pair
// that can be emitted so far. Empty chunks are a no-op. Text arriving before
// the first recognized header is discarded, never emitted; each recognized
// header is consumed silently.
func (c *Classifier) Feed(chunk string) []Labeled {
	if chunk == "" {
		return nil
	}
	c.buffer += chunk

	var out []Labeled
	for {
		if c.current == nil {
			match, idx := c.earliestHeader(nil)
			if idx < 0 {
				// No header yet; everything buffered may still be
				// preamble or a partial header.
				return out
			}
			c.current = match
			c.buffer = c.buffer[idx+len(match.Header):]
			continue
		}

		// Only another section's header ends the current section; the
		// current header reappearing inside its own content is plain text.
		match, idx := c.earliestHeader(c.current)
		if idx >= 0 {
			if idx > 0 {
				out = append(out, Labeled{Section: c.current.Name, Text: c.buffer[:idx]})
			}
			c.current = match
			c.buffer = c.buffer[idx+len(match.Header):]
			continue
		}

		// The buffer tail could be the first bytes of a header split
		// across chunks. A completed header of length L shows at most
		// L-1 pending characters, so withholding MaxHeaderLen-1 is
		// exactly enough to never miss a transition.
		reserve := c.reg.MaxHeaderLen() - 1
		if len(c.buffer) > reserve {
			emit := c.buffer[:len(c.buffer)-reserve]
			c.buffer = c.buffer[len(c.buffer)-reserve:]
			out = append(out, Labeled{Section: c.current.Name, Text: emit})
		}
		return out
	}
}

// Flush returns the trailing buffered text once the source stream has ended.
// The tail reserve no longer applies: no more data will arrive. Returns false
// when there is nothing to emit, in particular when no header was ever seen,
// in which case the whole stream is dropped.
func (c *Classifier) Flush() (Labeled, bool) {
	if c.current == nil || c.buffer == "" {
		return Labeled{}, false
	}
	lc := Labeled{Section: c.current.Name, Text: c.buffer}
	c.buffer = ""
	return lc, true
}

// earliestHeader finds the registered header with the lowest index in the
// buffer, skipping the excluded section. Ties are broken by registry order,
// though two distinct headers can only start at the same index if one is a
// prefix of the other, which NewRegistry rejects. Returns index -1 when no
// header is present.
func (c *Classifier) earliestHeader(exclude *Section) (*Section, int) {
	var match *Section
	best := -1
	for _, s := range c.reg.sections {
		if exclude != nil && s.Name == exclude.Name {
			continue
		}
		if i := strings.Index(c.buffer, s.Header); i >= 0 && (best < 0 || i < best) {
			s := s
			match = &s
			best = i
		}
	}
	return match, best
}

// Classify drives the classifier over a channel of raw chunks and returns the
// ordered stream of Labeled pairs. The output channel closes after the final
// flush. Cancelling ctx (or abandoning the output channel via ctx) stops the
// pump; no goroutine outlives the call.
func (c *Classifier) Classify(ctx context.Context, in <-chan string) <-chan Labeled {
	out := make(chan Labeled)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case chunk, ok := <-in:
				if !ok {
					if lc, ok := c.Flush(); ok {
						select {
						case out <- lc:
						case <-ctx.Done():
						}
					}
					return
				}
				for _, lc := range c.Feed(chunk) {
					select {
					case out <- lc:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out
}
