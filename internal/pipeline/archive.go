package pipeline

import (
	"context"
	"strings"

	"github.com/ppiankov/rtrarchive/internal/logging"
	"github.com/ppiankov/rtrarchive/internal/transport"
)

// documentMarker precedes the document identifier in an archivable URL
const documentMarker = "/toepasbareRegels/"

// unknownIdentifier names documents whose URL lacks the marker
const unknownIdentifier = "unknown"

// DocumentIdentifier returns the path segment following /toepasbareRegels/
func DocumentIdentifier(rawURL string) (string, bool) {
	idx := strings.Index(rawURL, documentMarker)
	if idx < 0 {
		return "", false
	}

	rest := rawURL[idx+len(documentMarker):]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	return rest, rest != ""
}

// archiveDocuments downloads every indexed document. Failures are logged
// and skipped; whatever was written stays written.
func (p *Pipeline) archiveDocuments(ctx context.Context, summary *RunSummary) {
	log := logging.FromContext(ctx)

	for _, entry := range p.reconciler.Index().Entries() {
		if ctx.Err() != nil {
			return
		}

		identifier, ok := DocumentIdentifier(entry.URL)
		if !ok {
			log.Warn().Str("url", entry.URL).Str("key", entry.Key).Msg("no document identifier in URL")
			identifier = unknownIdentifier
		}

		result, err := p.fetcher.Fetch(ctx, entry.URL)
		if err != nil {
			summary.DocumentFailures++
			log.Warn().Err(err).Str("url", entry.URL).Int("status", transport.StatusCode(err)).Msg("failed to download document")
			continue
		}

		path, err := p.docs.WriteDocument(identifier, entry.Key, result.Body)
		if err != nil {
			summary.DocumentFailures++
			log.Error().Err(err).Str("key", entry.Key).Msg("failed to write document")
			continue
		}

		summary.Documents++
		log.Debug().
			Str("key", entry.Key).
			Str("path", path).
			Str("content_type", result.ContentType).
			Bool("cached", result.Cached).
			Msg("document archived")
	}
}
