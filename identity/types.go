package identity

// LoginRequest is the JSON body of POST login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the 2xx body of POST login/. Fields the service omitted are empty.
type LoginResponse struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Username string `json:"username"`
}

// Attachment is a binary file part of a multipart request.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RegisterRequest is the multipart body of POST register/. ProfileImage is optional
// and omitted from the payload entirely when nil or empty.
type RegisterRequest struct {
	Username     string
	Email        string
	Password     string
	ProfileImage *Attachment
}

// RegisterResponse is the 2xx body of POST register/.
type RegisterResponse struct {
	Message string `json:"message"`
}
