package gmail

import (
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

// buildRawMessage assembles an RFC 2822 message and encodes it the way
// the Gmail send endpoint expects: URL-safe base64 without padding.
// When the reply carries an attachment path, the file is inlined as a
// base64 application/pdf part.
func buildRawMessage(reply domain.OutgoingReply) (string, error) {
	var builder strings.Builder

	if reply.AttachmentPath == "" {
		fmt.Fprintf(&builder, "To: %s\r\n", reply.To)
		fmt.Fprintf(&builder, "Subject: %s\r\n", reply.Subject)
		builder.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		builder.WriteString("\r\n")
		builder.WriteString(reply.Body)
		return encodeRaw(builder.String()), nil
	}

	attachment, err := os.ReadFile(reply.AttachmentPath)
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}

	var payload strings.Builder
	writer := multipart.NewWriter(&payload)

	fmt.Fprintf(&builder, "To: %s\r\n", reply.To)
	fmt.Fprintf(&builder, "Subject: %s\r\n", reply.Subject)
	fmt.Fprintf(&builder, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&builder, "Content-Type: multipart/mixed; boundary=%q\r\n", writer.Boundary())
	builder.WriteString("\r\n")

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=\"UTF-8\"")
	textPart, err := writer.CreatePart(textHeader)
	if err != nil {
		return "", fmt.Errorf("create text part: %w", err)
	}
	if _, err := textPart.Write([]byte(reply.Body)); err != nil {
		return "", fmt.Errorf("write text part: %w", err)
	}

	filename := filepath.Base(reply.AttachmentPath)
	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Type", "application/pdf")
	fileHeader.Set("Content-Transfer-Encoding", "base64")
	fileHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return "", fmt.Errorf("create attachment part: %w", err)
	}
	if _, err := filePart.Write([]byte(base64.StdEncoding.EncodeToString(attachment))); err != nil {
		return "", fmt.Errorf("write attachment part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	builder.WriteString(payload.String())
	return encodeRaw(builder.String()), nil
}

func encodeRaw(message string) string {
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(message))
}
