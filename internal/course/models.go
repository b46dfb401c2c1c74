package course

// Course is a parsed course document. The title is its only identity key.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson // Ordered by lesson number
}

// Lesson is a numbered section of a course.
type Lesson struct {
	Number int
	Title  string
	Link   string
}

// Chunk is a bounded span of lesson text, the unit of retrieval.
type Chunk struct {
	CourseTitle string
	Lesson      *int // nil for course preamble text
	Index       int  // Unique and strictly increasing within a course
	Text        string
}

// HasLesson reports whether the chunk belongs to a lesson.
func (c Chunk) HasLesson() bool {
	return c.Lesson != nil
}

// LessonByNumber returns the lesson with the given number, if the course has one.
func (c *Course) LessonByNumber(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}

// IntPtr returns a pointer to n. Handy for optional lesson numbers.
func IntPtr(n int) *int {
	return &n
}
