package documents

import "time"

// Document is the metadata record for an uploaded PDF. Summary is empty until generated.
type Document struct {
	ID         string
	UserID     string
	Name       string
	URL        string
	UploadedAt time.Time
	Summary    string
}

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId,omitempty"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"date"`
	Summary    string    `json:"summary,omitempty"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		UserID:     doc.UserID,
		Name:       doc.Name,
		URL:        doc.URL,
		UploadedAt: doc.UploadedAt,
		Summary:    doc.Summary,
	}
}

// listResponse omits the owner, matching the list projection (name, url, date, summary).
func listResponse(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp := toResponse(doc)
		resp.UserID = ""
		out = append(out, resp)
	}
	return out
}

// UploadedFile is returned by the file upload step.
type UploadedFile struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// DeleteResult reports the outcome of a delete.
type DeleteResult struct {
	Message     string `json:"message"`
	FileRemoved bool   `json:"fileRemoved"`
}
