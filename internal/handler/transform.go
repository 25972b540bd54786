package handler

import (
	"bufio"
	"bytes"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pngcrypt-go/internal/cache"
	"github.com/pngcrypt-go/internal/config"
	"github.com/pngcrypt-go/internal/container"
	"github.com/pngcrypt-go/internal/dao"
	"github.com/pngcrypt-go/internal/encryption"
	"github.com/pngcrypt-go/internal/errors"
	"github.com/pngcrypt-go/internal/fetch"
	"github.com/pngcrypt-go/internal/trace"
)

const (
	// PasswordHeader carries the encryption password
	PasswordHeader = "X-Password"

	defaultJobLimit = 50
	maxJobLimit     = 1000
)

// TransformHandler serves the block and PNG transform routes
type TransformHandler struct {
	cfg     *config.Config
	codecs  *cache.CodecCache
	fetcher *fetch.Client
	jobs    *dao.JobDAO
}

// NewTransformHandler creates a new transform handler
func NewTransformHandler(cfg *config.Config, codecs *cache.CodecCache, fetcher *fetch.Client, jobs *dao.JobDAO) *TransformHandler {
	return &TransformHandler{
		cfg:     cfg,
		codecs:  codecs,
		fetcher: fetcher,
		jobs:    jobs,
	}
}

// BlockEncrypt applies the padded block transform to the request body
func (h *TransformHandler) BlockEncrypt(c *gin.Context) { h.block(c, false) }

// BlockDecrypt reverses BlockEncrypt
func (h *TransformHandler) BlockDecrypt(c *gin.Context) { h.block(c, true) }

// PNGEncrypt converts a PNG image into an EPNG container
func (h *TransformHandler) PNGEncrypt(c *gin.Context) { h.png(c, false) }

// PNGDecrypt converts an EPNG container back into a PNG image
func (h *TransformHandler) PNGDecrypt(c *gin.Context) { h.png(c, true) }

func (h *TransformHandler) block(c *gin.Context, decrypt bool) {
	job := &dao.Job{Operation: operationName("block", decrypt), Source: "body"}

	alg, appErr := h.algorithmParam(c)
	if appErr != nil {
		RespondError(c, appErr)
		return
	}
	job.Algorithm = string(alg)

	codec, appErr := h.codec(c, alg)
	if appErr != nil {
		RespondError(c, appErr)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBodyBytes()))
	if err != nil {
		h.fail(c, job, bodyError(err))
		return
	}

	if decrypt {
		err = codec.Decrypt(data)
	} else {
		err = codec.Encrypt(data)
	}
	if err != nil {
		h.fail(c, job, errors.FromCrypto(err, decrypt))
		return
	}

	job.Chunks = 1
	job.Bytes = int64(len(data))
	h.done(c, job)

	c.Header("X-Algorithm", job.Algorithm)
	RespondRaw(c, "application/octet-stream", data)
}

func (h *TransformHandler) png(c *gin.Context, decrypt bool) {
	ctx := c.Request.Context()
	job := &dao.Job{Operation: operationName("png", decrypt)}

	alg, appErr := h.algorithmParam(c)
	if appErr != nil {
		RespondError(c, appErr)
		return
	}

	src, source, appErr := h.openSource(c)
	job.Source = source
	if appErr != nil {
		h.fail(c, job, appErr)
		return
	}
	defer src.Close()
	br := bufio.NewReader(src)

	// a container names its own algorithm
	if decrypt && c.Query("algorithm") == "" {
		hdr, err := container.PeekHeader(br)
		if err != nil {
			h.fail(c, job, h.pngError(err, decrypt))
			return
		}
		alg = hdr.AlgorithmName()
		if !encryption.IsRegistered(alg) {
			h.fail(c, job, errors.NewBadRequest("container uses unknown algorithm "+string(alg)))
			return
		}
	}
	job.Algorithm = string(alg)

	codec, appErr := h.codec(c, alg)
	if appErr != nil {
		h.fail(c, job, appErr)
		return
	}

	var out bytes.Buffer
	var stats container.Stats
	var err error
	if decrypt {
		stats, err = container.Decrypt(ctx, &out, br, codec)
	} else {
		stats, err = container.Encrypt(ctx, &out, br, codec)
	}
	if err != nil {
		h.fail(c, job, h.pngError(err, decrypt))
		return
	}

	job.Chunks = stats.Chunks
	job.Bytes = stats.Bytes
	h.done(c, job)

	contentType := "application/octet-stream"
	if decrypt {
		contentType = "image/png"
	}
	c.Header("X-Algorithm", job.Algorithm)
	c.Header("X-Chunks", strconv.Itoa(stats.Chunks))
	RespondRaw(c, contentType, out.Bytes())
}

// ListJobs returns recent jobs, newest first
func (h *TransformHandler) ListJobs(c *gin.Context) {
	limit := defaultJobLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			RespondError(c, errors.NewBadRequest("limit must be a positive integer"))
			return
		}
		limit = min(n, maxJobLimit)
	}

	jobs, err := h.jobs.List(limit)
	if err != nil {
		RespondError(c, errors.NewInternalWithCause("failed to list jobs", err))
		return
	}
	RespondSuccess(c, jobs)
}

// GetJob returns one job
func (h *TransformHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		if stderrors.Is(err, dao.ErrJobNotFound) {
			RespondError(c, errors.NewNotFound("job not found"))
			return
		}
		RespondError(c, errors.NewInternalWithCause("failed to load job", err))
		return
	}
	RespondSuccess(c, job)
}

func (h *TransformHandler) algorithmParam(c *gin.Context) (encryption.Algorithm, *errors.AppError) {
	alg := encryption.Algorithm(c.Query("algorithm"))
	if alg == "" {
		alg = h.cfg.Algorithm()
	}
	if alg == "" {
		alg = encryption.DefaultAlgorithm
	}
	if !encryption.IsRegistered(alg) {
		return "", errors.NewBadRequest("unknown algorithm " + string(alg))
	}
	return alg, nil
}

func (h *TransformHandler) codec(c *gin.Context, alg encryption.Algorithm) (*encryption.Codec, *errors.AppError) {
	password := c.GetHeader(PasswordHeader)
	if password == "" {
		password = h.cfg.Crypto.Password
	}
	if password == "" {
		return nil, errors.NewBadRequest("password required")
	}

	codec, err := h.codecs.Get(password, alg)
	if err != nil {
		return nil, errors.NewInternalWithCause("failed to build codec", err)
	}
	return codec, nil
}

// openSource returns the request body, or the body of the src URL
func (h *TransformHandler) openSource(c *gin.Context) (io.ReadCloser, string, *errors.AppError) {
	src := c.Query("src")
	if src == "" {
		return http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBodyBytes()), "body", nil
	}

	body, err := h.fetcher.Fetch(c.Request.Context(), src, h.cfg.MaxBodyBytes())
	if err != nil {
		return nil, src, errors.FromFetch(err)
	}
	return body, src, nil
}

func (h *TransformHandler) pngError(err error, decrypt bool) *errors.AppError {
	var maxErr *http.MaxBytesError
	switch {
	case stderrors.As(err, &maxErr):
		return bodyError(err)
	case stderrors.Is(err, fetch.ErrTooLarge):
		return errors.FromFetch(err)
	}
	return errors.FromCrypto(err, decrypt)
}

func bodyError(err error) *errors.AppError {
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return errors.NewTooLarge("request body too large")
	}
	return errors.NewBadRequestWithCause("failed to read request body", err)
}

func operationName(kind string, decrypt bool) string {
	if decrypt {
		return kind + "-decrypt"
	}
	return kind + "-encrypt"
}

func (h *TransformHandler) fail(c *gin.Context, job *dao.Job, appErr *errors.AppError) {
	job.Status = dao.JobStatusFailed
	job.Error = appErr.Error()
	h.record(c, job)
	RespondError(c, appErr)
}

func (h *TransformHandler) done(c *gin.Context, job *dao.Job) {
	job.Status = dao.JobStatusDone
	h.record(c, job)
}

// record never fails the request; history is best effort
func (h *TransformHandler) record(c *gin.Context, job *dao.Job) {
	logger := trace.Logger(c.Request.Context())
	if err := h.jobs.Record(job); err != nil {
		logger.Warn().Err(err).Msg("Failed to record job")
		return
	}
	c.Header("X-Job-ID", job.ID)
	logger.Info().
		Str("job", job.ID).
		Str("algorithm", job.Algorithm).
		Str("status", job.Status).
		Int("chunks", job.Chunks).
		Int64("bytes", job.Bytes).
		Msg("Job recorded")
}
