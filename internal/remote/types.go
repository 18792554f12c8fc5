package remote

// StatusSuccess is the status value the document service reports on
// success; anything else is an application error.
const StatusSuccess = "success"

// FilterRequest asks the service to narrow the library to the
// documents relevant to a focus prompt.
type FilterRequest struct {
	FilterPrompt string `json:"filter_prompt"`
}

// FilterResponse carries the filtered subset, ordered by relevance.
// An empty Files with a success status means "no relevant documents",
// which is a valid outcome, not an error.
type FilterResponse struct {
	Status  string   `json:"status"`
	Files   []string `json:"files"`
	Message string   `json:"message"`
}

// ChatRequest asks the service to answer a question grounded in one
// context document.
type ChatRequest struct {
	Filename string `json:"filename"`
	Question string `json:"question"`
}

// ChatResponse carries the answer text on success.
type ChatResponse struct {
	Status  string `json:"status"`
	Answer  string `json:"answer"`
	Message string `json:"message"`
}

// DocumentsResponse lists the full document library.
type DocumentsResponse struct {
	Status  string   `json:"status"`
	Files   []string `json:"files"`
	Message string   `json:"message"`
}
