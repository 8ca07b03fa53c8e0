package lsp

import (
	"strings"
	"sync"

	"github.com/walteh/treehl/pkg/lsp/protocol"
)

// normalizeURI ensures consistent URI handling by removing the file://
// prefix if present and converting to a clean path
func normalizeURI(uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	uri = strings.TrimPrefix(uri, "file:")
	return uri
}

// Document represents a text document with its metadata
type Document struct {
	URI        string
	LanguageID string
	Version    int32
	Content    string
}

// DocumentManager handles document operations
type DocumentManager struct {
	store *sync.Map // map[string]*Document
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		store: &sync.Map{},
	}
}

func (m *DocumentManager) Get(uri protocol.DocumentURI) (*Document, bool) {
	normalizedURI := normalizeURI(string(uri))
	content, ok := m.store.Load(normalizedURI)
	if !ok {
		return nil, false
	}
	doc, ok := content.(*Document)
	return doc, ok
}

func (m *DocumentManager) Store(uri protocol.DocumentURI, doc *Document) {
	normalizedURI := normalizeURI(string(uri))
	m.store.Store(normalizedURI, doc)
}

func (m *DocumentManager) Delete(uri protocol.DocumentURI) {
	normalizedURI := normalizeURI(string(uri))
	m.store.Delete(normalizedURI)
}
