package reader

import (
	"fmt"

	"github.com/gotd/td/tg"
)

// Message is spec §3's "Message reference": a resolved chat-file carrying
// everything get_block needs to address it on its home datacentre.
type Message struct {
	MessageID  uint64
	ChatID     int64
	DocumentID int64
	AccessHash int64
	FileRef    []byte
	DCID       int
	Size       int64
	FileName   string
}

// Location builds the InputDocumentFileLocation get_block's UploadGetFile
// call needs.
func (m *Message) Location() tg.InputFileLocationClass {
	return &tg.InputDocumentFileLocation{
		ID:            m.DocumentID,
		AccessHash:    m.AccessHash,
		FileReference: m.FileRef,
	}
}

// DisplayName is the message's filename attribute, or the
// file_<doc_id> fallback spec §4.G names for the Content-Disposition
// header.
func (m *Message) DisplayName() string {
	if m.FileName != "" {
		return m.FileName
	}
	return fmt.Sprintf("file_%d", m.DocumentID)
}

// messageFromTG extracts a Message from a resolved *tg.Message, failing
// with apperr.KindNotFound semantics (returned as a plain error here; the
// caller in reader.go wraps it) when the message carries no document
// media.
func messageFromTG(chatID int64, msg *tg.Message) (*Message, error) {
	media, ok := msg.GetMedia()
	if !ok {
		return nil, fmt.Errorf("message %d has no media", msg.ID)
	}
	mediaDoc, ok := media.(*tg.MessageMediaDocument)
	if !ok {
		return nil, fmt.Errorf("message %d media is not a document", msg.ID)
	}
	docClass, ok := mediaDoc.GetDocument()
	if !ok {
		return nil, fmt.Errorf("message %d document is empty", msg.ID)
	}
	doc, ok := docClass.AsNotEmpty()
	if !ok {
		return nil, fmt.Errorf("message %d document is empty", msg.ID)
	}

	out := &Message{
		MessageID:  uint64(msg.ID),
		ChatID:     chatID,
		DocumentID: doc.ID,
		AccessHash: doc.AccessHash,
		FileRef:    doc.FileReference,
		DCID:       doc.DCID,
		Size:       doc.Size,
	}
	for _, attr := range doc.Attributes {
		if name, ok := attr.(*tg.DocumentAttributeFilename); ok {
			out.FileName = name.FileName
		}
	}
	return out, nil
}
