package indexer

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"course-assistant/internal/course"
	"course-assistant/internal/service"
)

const (
	titlePrefix      = "course title:"
	linkPrefix       = "course link:"
	instructorPrefix = "course instructor:"
	lessonLinkPrefix = "lesson link:"
)

var lessonMarker = regexp.MustCompile(`(?i)^lesson\s+(\d+)\s*:\s*(.*)$`)

// Chunker parses course documents and splits their text into overlapping windows.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker with a maximum window size and overlap, both in characters.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size is the maximum window length in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap is the maximum carried-over tail length in characters.
func (c *Chunker) Overlap() int { return c.overlap }

type lessonSection struct {
	lesson course.Lesson
	line   int
	body   []string
}

// ParseDocument turns one raw document into a Course and its ordered chunks.
// A document without a Course Title line fails with *service.DocumentFormatError.
func (c *Chunker) ParseDocument(doc SourceDocument) (*ParsedDocument, error) {
	lines := strings.Split(strings.ReplaceAll(doc.Text, "\r\n", "\n"), "\n")

	var crs course.Course
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, titlePrefix):
			crs.Title = strings.TrimSpace(line[len(titlePrefix):])
			continue
		case strings.HasPrefix(lower, linkPrefix):
			crs.Link = strings.TrimSpace(line[len(linkPrefix):])
			continue
		case strings.HasPrefix(lower, instructorPrefix):
			crs.Instructor = strings.TrimSpace(line[len(instructorPrefix):])
			continue
		}
		break
	}
	if crs.Title == "" {
		return nil, &service.DocumentFormatError{Source: doc.ID, Reason: "missing Course Title line"}
	}

	var preamble []string
	var sections []*lessonSection
	seen := make(map[int]bool)
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if m := lessonMarker.FindStringSubmatch(line); m != nil {
			number, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, &service.DocumentFormatError{Source: doc.ID, Line: i + 1, Reason: fmt.Sprintf("invalid lesson number %q", m[1])}
			}
			if seen[number] {
				return nil, &service.DocumentFormatError{Source: doc.ID, Line: i + 1, Reason: fmt.Sprintf("duplicate lesson number %d", number)}
			}
			seen[number] = true
			sections = append(sections, &lessonSection{
				lesson: course.Lesson{Number: number, Title: strings.TrimSpace(m[2])},
				line:   i + 1,
			})
			continue
		}

		if len(sections) == 0 {
			if line != "" {
				preamble = append(preamble, line)
			}
			continue
		}

		current := sections[len(sections)-1]
		if len(current.body) == 0 && current.lesson.Link == "" && strings.HasPrefix(strings.ToLower(line), lessonLinkPrefix) {
			current.lesson.Link = strings.TrimSpace(line[len(lessonLinkPrefix):])
			continue
		}
		if line != "" {
			current.body = append(current.body, line)
		}
	}

	var chunks []course.Chunk
	index := 0
	for _, text := range c.Split(strings.Join(preamble, " ")) {
		chunks = append(chunks, course.Chunk{CourseTitle: crs.Title, Index: index, Text: text})
		index++
	}
	for _, s := range sections {
		for j, text := range c.Split(strings.Join(s.body, " ")) {
			if j == 0 {
				text = fmt.Sprintf("Lesson %d content: %s", s.lesson.Number, text)
			}
			chunks = append(chunks, course.Chunk{
				CourseTitle: crs.Title,
				Lesson:      course.IntPtr(s.lesson.Number),
				Index:       index,
				Text:        text,
			})
			index++
		}
		crs.Lessons = append(crs.Lessons, s.lesson)
	}
	sort.SliceStable(crs.Lessons, func(a, b int) bool {
		return crs.Lessons[a].Number < crs.Lessons[b].Number
	})

	return &ParsedDocument{Course: crs, Chunks: chunks}, nil
}

// Split packs the sentences of text into windows of at most size characters.
// Each new window starts with the trailing sentences of the previous one whose
// combined length fits the overlap. A sentence longer than size is broken on
// word boundaries first.
func (c *Chunker) Split(text string) []string {
	var units []string
	for _, sentence := range splitSentences(strings.Join(strings.Fields(text), " ")) {
		units = append(units, c.fit(sentence)...)
	}
	if len(units) == 0 {
		return nil
	}

	var chunks []string
	var window []string
	fresh := false

	closeWindow := func() {
		if fresh {
			chunks = append(chunks, strings.Join(window, " "))
		}
		window = c.tail(window)
		fresh = false
	}

	for _, unit := range units {
		if joinedLen(append(window[:len(window):len(window)], unit)) > c.size {
			closeWindow()
			window = c.fitTail(window, unit)
		}
		window = append(window, unit)
		fresh = true
	}
	if fresh {
		chunks = append(chunks, strings.Join(window, " "))
	}
	return chunks
}

// fitTail shortens a carried tail until unit fits after it within size.
// Leading sentences are dropped first, then leading words of the last one.
func (c *Chunker) fitTail(tail []string, unit string) []string {
	budget := c.size - runeLen(unit) - 1
	for len(tail) > 1 && joinedLen(tail) > budget {
		tail = tail[1:]
	}
	if len(tail) == 0 || joinedLen(tail) <= budget {
		return tail
	}

	words := strings.Fields(tail[0])
	from := 0
	for from < len(words) && joinedLen(words[from:]) > budget {
		from++
	}
	if from == len(words) {
		return nil
	}
	return []string{strings.Join(words[from:], " ")}
}

// fit breaks a sentence longer than size into runs of whole words. A single
// word longer than size is cut by characters.
func (c *Chunker) fit(sentence string) []string {
	if runeLen(sentence) <= c.size {
		return []string{sentence}
	}

	var out []string
	var run []string
	for _, word := range strings.Fields(sentence) {
		for runeLen(word) > c.size {
			if len(run) > 0 {
				out = append(out, strings.Join(run, " "))
				run = nil
			}
			r := []rune(word)
			out = append(out, string(r[:c.size]))
			word = string(r[c.size:])
		}
		if word == "" {
			continue
		}
		if len(run) > 0 && joinedLen(append(run[:len(run):len(run)], word)) > c.size {
			out = append(out, strings.Join(run, " "))
			run = nil
		}
		run = append(run, word)
	}
	if len(run) > 0 {
		out = append(out, strings.Join(run, " "))
	}
	return out
}

// tail returns the overlap carried into the next window: whole trailing
// sentences when they fit, otherwise the trailing words of the last sentence.
func (c *Chunker) tail(window []string) []string {
	if c.overlap == 0 || len(window) == 0 {
		return nil
	}

	start := len(window)
	for start > 0 && joinedLen(window[start-1:]) <= c.overlap {
		start--
	}
	if start < len(window) {
		return append([]string(nil), window[start:]...)
	}

	words := strings.Fields(window[len(window)-1])
	from := len(words)
	for from > 0 && joinedLen(words[from-1:]) <= c.overlap {
		from--
	}
	if from == len(words) {
		return nil
	}
	return []string{strings.Join(words[from:], " ")}
}

// splitSentences breaks text after . ! or ? when followed by whitespace and an
// upper-case letter. Short abbreviations such as "e.g." and "Mr." do not split.
func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j >= len(runes) || !unicode.IsUpper(runes[j]) {
			continue
		}
		if isAbbreviation(runes, i) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isAbbreviation(runes []rune, end int) bool {
	// x.y.
	if end >= 3 && isWordRune(runes[end-3]) && runes[end-2] == '.' && isWordRune(runes[end-1]) {
		return true
	}
	// Mr.
	if end >= 2 && runes[end] == '.' && unicode.IsUpper(runes[end-2]) && unicode.IsLower(runes[end-1]) {
		return end == 2 || !isWordRune(runes[end-3])
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func joinedLen(parts []string) int {
	if len(parts) == 0 {
		return 0
	}
	n := len(parts) - 1
	for _, p := range parts {
		n += runeLen(p)
	}
	return n
}
