package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/devaalay/asset-service/internal/types"
)

// Stager stages byte payloads in the object store and compensates for them.
type Stager interface {
	Stage(ctx context.Context, key string, data []byte, contentType string) (*types.StagedObject, error)
	Unstage(ctx context.Context, key string)
}

// ExpandFunc expands an archive payload into staged image descriptors.
type ExpandFunc func(ctx context.Context, s *Session, data []byte) ([]types.ImageObject, error)

// FileRule describes how one file slot is handled.
type FileRule struct {
	// Accept rejects a part before any byte reaches the object store.
	Accept func(ev *FileEvent) error
	// Key synthesizes the storage key for the part. It sees the session so
	// the key prefix can use fields that arrived before the part; fields
	// the client sends after the file only affect the cosmetic prefix,
	// never validation, which runs on the complete session.
	Key func(s *Session, ev *FileEvent) string
	// Expand replaces direct staging for archive slots.
	Expand ExpandFunc
}

// AnyField matches a file part regardless of its form field name.
const AnyField = "*"

type Options struct {
	Limits ParserLimits
	Files  map[string]FileRule
}

func (o Options) rule(field string) (FileRule, bool) {
	if r, ok := o.Files[field]; ok {
		return r, true
	}
	r, ok := o.Files[AnyField]
	return r, ok
}

// ValidateFunc checks referential and uniqueness constraints once every
// field is known and every slot has staged.
type ValidateFunc func(ctx context.Context, s *Session) error

// CommitFunc writes the metadata record. It returns the response payload
// and the keys of now-superseded objects, which are deleted only after the
// write has succeeded.
type CommitFunc func(ctx context.Context, s *Session) (result any, superseded []string, err error)

// Coordinator drives an upload session through
// Receiving → AwaitingUploads → Validating → Committing, rolling back every
// staged object in the session on any failure along the way.
type Coordinator struct {
	stager Stager
	log    *slog.Logger
}

func NewCoordinator(stager Stager, log *slog.Logger) *Coordinator {
	return &Coordinator{stager: stager, log: log}
}

// Run executes one upload session against the incoming request.
func (c *Coordinator) Run(ctx context.Context, r *http.Request, opts Options, validate ValidateFunc, commit CommitFunc) (any, error) {
	session := NewSession()

	parser, err := NewParser(r, opts.Limits)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)

	// Receiving: fields accumulate; each file part stages on its own
	// goroutine while parsing continues. A repeated file field is rejected
	// here, before its bytes reach the store: the session keys staged
	// objects by field name, so a second part for a filled slot would
	// shadow the first ref and leave its object outside the rollback set.
	var parseErr error
	seenFiles := make(map[string]bool)
	for {
		field, file, err := parser.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			parseErr = err
			break
		}

		if field != nil {
			session.setField(field.Name, field.Value)
			continue
		}

		rule, ok := opts.rule(file.Field)
		if !ok {
			parseErr = Validationf("unexpected file field %q", file.Field)
			break
		}
		if seenFiles[file.Field] {
			parseErr = Validationf("duplicate file field %q", file.Field)
			break
		}
		seenFiles[file.Field] = true

		ev := file
		g.Go(func() error {
			if rule.Accept != nil {
				if err := rule.Accept(ev); err != nil {
					return err
				}
			}

			if rule.Expand != nil {
				images, err := rule.Expand(gctx, session, ev.Data)
				if err != nil {
					return err
				}
				session.setImages(images)
				return nil
			}

			ref, err := c.stager.Stage(gctx, rule.Key(session, ev), ev.Data, ev.ContentType)
			if err != nil {
				return err
			}
			session.addStaged(ev.Field, ref)
			return nil
		})
	}

	// AwaitingUploads: the full slot set is awaited before anything else;
	// a completed subset never triggers premature validation.
	session.advance(StateAwaitingUploads)
	uploadErr := g.Wait()

	firstErr := parseErr
	if firstErr == nil {
		firstErr = uploadErr
	}
	if firstErr != nil {
		c.rollback(ctx, session)
		return nil, firstErr
	}

	session.advance(StateValidating)
	if err := validate(ctx, session); err != nil {
		c.rollback(ctx, session)
		return nil, err
	}

	session.advance(StateCommitting)
	result, superseded, err := commit(ctx, session)
	if err != nil {
		c.rollback(ctx, session)
		return nil, err
	}

	// Superseded objects go away only after the metadata write succeeded,
	// so a failed write never leaves a record pointing at a deleted key.
	for _, key := range superseded {
		c.stager.Unstage(context.WithoutCancel(ctx), key)
	}

	session.advance(StateCommitted)
	return result, nil
}

// AcceptContentType builds an Accept rule requiring the part's MIME type to
// start with prefix, e.g. "video/".
func AcceptContentType(prefix string) func(*FileEvent) error {
	return func(ev *FileEvent) error {
		if !strings.HasPrefix(ev.ContentType, prefix) {
			return Validationf("only %s files are allowed", strings.TrimSuffix(prefix, "/"))
		}
		return nil
	}
}

// rollback unstages everything the session has staged. Compensation runs on
// a non-cancellable context: a client disconnect must not leave the orphans
// it caused.
func (c *Coordinator) rollback(ctx context.Context, session *Session) {
	session.advance(StateRolledBack)

	keys := session.StagedKeys()
	if len(keys) == 0 {
		return
	}

	cleanupCtx := context.WithoutCancel(ctx)
	for _, key := range keys {
		c.stager.Unstage(cleanupCtx, key)
	}
	c.log.Info("rolled back staged objects", slog.Int("count", len(keys)))
}
