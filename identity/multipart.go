package identity

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const profileImageField = "profile_image"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeRegistration(req RegisterRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range [...][2]string{
		{"username", req.Username},
		{"email", req.Email},
		{"password", req.Password},
	} {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return nil, "", err
		}
	}

	if img := req.ProfileImage; img != nil && len(img.Data) > 0 {
		contentType, filename := describeAttachment(img)

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			profileImageField, quoteEscaper.Replace(filename)))
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// describeAttachment fills in the content type and filename the caller left empty.
func describeAttachment(a *Attachment) (contentType, filename string) {
	contentType = a.ContentType
	filename = a.Filename

	var detected *mimetype.MIME
	if contentType == "" || filename == "" {
		detected = mimetype.Detect(a.Data)
	}
	if contentType == "" {
		contentType = detected.String()
	}
	if filename == "" {
		filename = profileImageField + detected.Extension()
	}
	return contentType, filename
}
