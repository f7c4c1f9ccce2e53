package ingestion_engine

import (
	"time"

	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/logger"
)

// IngestConfig tunes the upload pipeline.
//
// Container:          object-store container that archives every uploaded document.
// MaxUploadBytes:     uploads above this size are rejected before anything else happens (0 = no cap).
// RecognitionTimeout: upper bound for one recognition call, which can take tens of seconds.
type IngestConfig struct {
	Container          string
	MaxUploadBytes     int64
	RecognitionTimeout time.Duration
}

// Upload is one file of a (possibly multi-file) upload.
type Upload struct {
	FileName string
	Data     []byte
}

// Pipeline takes one uploaded document all the way from bytes to an enriched table:
//
// db:         relational store for the table and its registry entry.
// obj:        archive for the raw document.
// recognizer: document recognition service.
// enricher:   embedding and translation passes run after insert.
// cfg:        runtime knobs.
type Pipeline struct {
	db         core.DbClient
	obj        core.ObjectClient
	recognizer core.DocumentRecognizer
	enricher   core.Enricher
	cfg        *IngestConfig
	log        *logger.Logger
}

// DocconvRecognizer implements core.DocumentRecognizer locally using sajari/docconv.
type DocconvRecognizer struct {
	useReadability bool
}
