package model

// AnswerRecord maps a question index to the selected option key.
// A missing index means the question was not attempted.
type AnswerRecord map[int]string

// Clone returns an independent copy of r.
func (r AnswerRecord) Clone() AnswerRecord {
	out := make(AnswerRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Selected returns the option chosen for index, if any.
func (r AnswerRecord) Selected(index int) (string, bool) {
	v, ok := r[index]
	return v, ok
}
