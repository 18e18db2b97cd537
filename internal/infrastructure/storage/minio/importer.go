package minio

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/tupiana/lexipipe/internal/domain/lexicon"
	"github.com/tupiana/lexipipe/internal/infrastructure/messaging/kafka"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// tsvColumns is the fixed layout of a lexicon source file: one entry per
// line, tab-separated.  Domain codes are comma-separated in their column;
// confidence and frequency may be empty.
//
//	headword \t source \t pos_class \t domain_codes \t confidence \t frequency
const tsvColumns = 6

// mergeBatchSize bounds memory while streaming large source files.
const mergeBatchSize = 500

// EventPublisher announces completed imports.  Satisfied by kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key, eventType string, payload any) error
}

// ObjectSource lists and opens lexicon source objects.  Satisfied by Client.
type ObjectSource interface {
	ListSourceObjects(ctx context.Context, prefix string) ([]string, error)
	OpenObject(ctx context.Context, objectKey string) (io.ReadCloser, error)
}

// Importer streams TSV source objects from the bucket into the lexicon
// store.  Malformed rows are rejected and counted; a bad row never aborts
// the file.
type Importer struct {
	client    ObjectSource
	store     *lexicon.Store
	publisher EventPublisher
	logger    logging.Logger
}

// NewImporter builds the importer.  publisher may be nil when no event bus
// is wired, as in the CLI.
func NewImporter(client ObjectSource, store *lexicon.Store, publisher EventPublisher, log logging.Logger) *Importer {
	return &Importer{client: client, store: store, publisher: publisher, logger: log}
}

// ImportObject parses one source object and merges its entries.
func (i *Importer) ImportObject(ctx context.Context, objectKey string) (*lexicon.ImportReport, error) {
	reader, err := i.client.OpenObject(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	report := &lexicon.ImportReport{}
	batch := make([]*lexicon.Entry, 0, mergeBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		chunkReport, err := i.store.Merge(ctx, batch)
		if err != nil {
			return err
		}
		report.Merge(chunkReport)
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry, err := parseLine(line)
		if err != nil {
			report.Rejected++
			i.logger.Warn("Rejected lexicon row",
				logging.String("object", objectKey),
				logging.Int("line", lineNo),
				logging.Err(err))
			continue
		}
		batch = append(batch, entry)
		if len(batch) >= mergeBatchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return report, errors.Wrap(err, errors.ErrCodeLexiconSourceFileError, "source file read failed")
	}
	if err := flush(); err != nil {
		return report, err
	}

	i.logger.Info("Imported lexicon source",
		logging.String("object", objectKey),
		logging.Int("accepted", report.Accepted),
		logging.Int("rejected", report.Rejected))

	i.announce(ctx, objectKey, report)
	return report, nil
}

// ImportPrefix imports every object under prefix, aggregating reports.
func (i *Importer) ImportPrefix(ctx context.Context, prefix string) (*lexicon.ImportReport, error) {
	keys, err := i.client.ListSourceObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	total := &lexicon.ImportReport{}
	for _, key := range keys {
		report, err := i.ImportObject(ctx, key)
		if report != nil {
			total.Merge(report)
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (i *Importer) announce(ctx context.Context, objectKey string, report *lexicon.ImportReport) {
	if i.publisher == nil {
		return
	}
	payload := kafka.LexiconImportedPayload{
		Object:   objectKey,
		Accepted: report.Accepted,
		Rejected: report.Rejected,
	}
	if err := i.publisher.Publish(ctx, kafka.TopicLexiconImported, objectKey, "lexicon.imported", payload); err != nil {
		i.logger.Warn("Failed to announce lexicon import", logging.Err(err))
	}
}

func parseLine(line string) (*lexicon.Entry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != tsvColumns {
		return nil, errors.Newf(errors.ErrCodeLexiconEntryMalformed,
			"expected %d columns, got %d", tsvColumns, len(fields))
	}

	entry := &lexicon.Entry{
		Headword: strings.TrimSpace(fields[0]),
		Source:   lexicon.Source(strings.TrimSpace(fields[1])),
		POSClass: strings.TrimSpace(fields[2]),
	}
	if codes := strings.TrimSpace(fields[3]); codes != "" {
		for _, code := range strings.Split(codes, ",") {
			if code = strings.TrimSpace(code); code != "" {
				entry.DomainCodes = append(entry.DomainCodes, code)
			}
		}
	}
	if raw := strings.TrimSpace(fields[4]); raw != "" {
		conf, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeLexiconEntryMalformed, "bad confidence %q", raw)
		}
		entry.Confidence = conf
	}
	if raw := strings.TrimSpace(fields[5]); raw != "" {
		freq, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeLexiconEntryMalformed, "bad frequency %q", raw)
		}
		entry.Frequency = freq
	}

	entry.Normalize()
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}
