package gpi

import (
	"strconv"
	"strings"
)

// ShortName renders the last name segment of h together with its index
// groups, e.g. "sig[3][2]" or "sig(3,2)".
func (s NameStyle) ShortName(h *Handle) string {
	return s.format(h, false)
}

// FullName renders the qualified name of h from its root.
func (s NameStyle) FullName(h *Handle) string {
	return s.format(h, true)
}

// format builds a name in two passes: the first walks the parent chain and
// sums segment lengths, the second fills a fixed buffer from the back.
func (s NameStyle) format(h *Handle, full bool) string {
	if h == nil {
		return ""
	}

	n := 0
	var child *Handle
	for p := h; p != nil; child, p = p, p.parent {
		n += s.segmentLen(p, child, full)
		if !full && !p.indexed() {
			break
		}
	}

	buf := make([]byte, n)
	i := n
	child = nil
	for p := h; p != nil; child, p = p, p.parent {
		i = s.fillSegment(buf, i, p, child, full)
		if !full && !p.indexed() {
			break
		}
	}
	return string(buf[i:])
}

// grouped reports whether child's index joins the bracket group of its
// pseudo parent.
func (s NameStyle) grouped(child, parent *Handle) bool {
	return s.GroupPseudo && child != nil && parent != nil &&
		child.indexed() && parent.pseudo && parent.indexed() &&
		parent.kind != KindGenArray && !parent.parentIsGenArray()
}

func (h *Handle) parentIsGenArray() bool {
	return h.parent != nil && h.parent.kind == KindGenArray
}

func (s NameStyle) brackets(p *Handle) (string, string) {
	if p.parentIsGenArray() {
		return s.GenIndexOpen, s.GenIndexClose
	}
	return s.IndexOpen, s.IndexClose
}

func (s NameStyle) separatorFor(p *Handle) string {
	if p.parent == nil {
		if s.Leading {
			return s.Separator
		}
		return ""
	}
	if p.parent.kind == KindStructure {
		return s.StructSeparator
	}
	return s.Separator
}

func (s NameStyle) segmentLen(p, child *Handle, full bool) int {
	if !p.indexed() {
		if !full {
			return len(p.name)
		}
		return len(s.separatorFor(p)) + len(p.name)
	}
	open, close := s.brackets(p)
	n := len(p.indexText())
	if !s.grouped(child, p) {
		n += len(close)
	}
	if s.grouped(p, p.parent) {
		n++
	} else {
		n += len(open)
	}
	return n
}

func (s NameStyle) fillSegment(buf []byte, i int, p, child *Handle, full bool) int {
	if !p.indexed() {
		i -= copy(buf[i-len(p.name):i], p.name)
		if full {
			sep := s.separatorFor(p)
			i -= copy(buf[i-len(sep):i], sep)
		}
		return i
	}
	open, close := s.brackets(p)
	if !s.grouped(child, p) {
		i -= copy(buf[i-len(close):i], close)
	}
	text := p.indexText()
	i -= copy(buf[i-len(text):i], text)
	if s.grouped(p, p.parent) {
		i--
		buf[i] = ','
	} else {
		i -= copy(buf[i-len(open):i], open)
	}
	return i
}

// ChildName returns the qualified name a by-name lookup under parent uses.
func (s NameStyle) ChildName(parent *Handle, name string) string {
	sep := s.Separator
	if parent.kind == KindStructure {
		sep = s.StructSeparator
	}
	return s.FullName(parent) + sep + name
}

// GenIndexName returns the qualified name of instance index of a generate
// loop pseudo handle.
func (s NameStyle) GenIndexName(parent *Handle, index int) string {
	return s.FullName(parent) + s.GenIndexOpen + strconv.Itoa(index) + s.GenIndexClose
}

// SplitGenIndex splits a generate instance name such as "loop[3]" into its
// base name and label. ok is false when name carries no trailing group.
func (s NameStyle) SplitGenIndex(name string) (base, label string, ok bool) {
	if !strings.HasSuffix(name, s.GenIndexClose) {
		return name, "", false
	}
	open := strings.LastIndex(name, s.GenIndexOpen)
	if open <= 0 {
		return name, "", false
	}
	return name[:open], name[open+len(s.GenIndexOpen) : len(name)-len(s.GenIndexClose)], true
}

// HasDelimitedPrefix reports whether name starts with prefix followed by the
// end of the string, a '.' or a generate index bracket.
func (s NameStyle) HasDelimitedPrefix(name, prefix string) bool {
	if len(name) < len(prefix) {
		return false
	}
	head := name[:len(prefix)]
	if s.FoldCase {
		if fold.String(head) != fold.String(prefix) {
			return false
		}
	} else if head != prefix {
		return false
	}
	rest := name[len(prefix):]
	return rest == "" || strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, s.GenIndexOpen)
}

// EqualNames compares identifiers using the style's case rule.
func (s NameStyle) EqualNames(a, b string) bool {
	if s.FoldCase {
		return fold.String(a) == fold.String(b)
	}
	return a == b
}
