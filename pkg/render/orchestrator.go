package render

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/rlei-miris/kit-render-service/pkg/camera"
	"github.com/rlei-miris/kit-render-service/pkg/errors"
	"github.com/rlei-miris/kit-render-service/pkg/jobstore"
	"github.com/rlei-miris/kit-render-service/pkg/observability"
	"github.com/rlei-miris/kit-render-service/pkg/scene"
	"github.com/rlei-miris/kit-render-service/pkg/session"
)

// Default request values, matching the service's historical behavior.
const (
	DefaultCameraName         = "camera_0"
	DefaultFocalLength        = 15.0
	DefaultHorizontalAperture = 20.0
	DefaultImageSize          = 1024.0
)

// DefaultTimeout bounds the wait for renderer completion. The legacy service
// waited forever; an expired wait aborts the job with a RENDER_TIMEOUT error.
const DefaultTimeout = 5 * time.Minute

// Request describes one render invocation. Rotation is Euler degrees in
// world space, applied in XYZ order.
type Request struct {
	CameraName               string     `json:"camera_name"`
	CameraPosition           [3]float64 `json:"camera_position"`
	CameraRotation           [3]float64 `json:"camera_rotation"`
	CameraFocalLength        float64    `json:"camera_focal_length"`
	CameraHorizontalAperture float64    `json:"camera_horizontal_aperture"`
	ImageResolution          [2]float64 `json:"image_resolution"`
}

// ApplyDefaults fills zero-valued fields with the service defaults.
// This method is idempotent.
func (r *Request) ApplyDefaults() {
	if r.CameraName == "" {
		r.CameraName = DefaultCameraName
	}
	if r.CameraFocalLength == 0 {
		r.CameraFocalLength = DefaultFocalLength
	}
	if r.CameraHorizontalAperture == 0 {
		r.CameraHorizontalAperture = DefaultHorizontalAperture
	}
	if r.ImageResolution == [2]float64{} {
		r.ImageResolution = [2]float64{DefaultImageSize, DefaultImageSize}
	}
}

// Validate checks the request fields. It does not check preconditions on the
// session; that is the orchestrator's job.
func (r *Request) Validate() error {
	if err := errors.ValidateCameraName(r.CameraName); err != nil {
		return err
	}
	return errors.ValidateResolution(r.ImageResolution[0], r.ImageResolution[1])
}

// Response is the result of a completed render job. The three paths
// reference files that exist on disk at response time.
type Response struct {
	JobID          string      `json:"job_id"`
	ColorImagePath string      `json:"color_image_path"`
	DepthImagePath string      `json:"depth_image_path"`
	DepthArrayPath string      `json:"depth_npy_path"`
	Camera         camera.Info `json:"camera"`
}

// State names a position in the per-request lifecycle.
type State string

// Lifecycle states. Rejected and Failed are terminal failure states;
// Done is the terminal success state.
const (
	StateIdle               State = "Idle"
	StateValidated          State = "Validated"
	StateJobSubmitted       State = "JobSubmitted"
	StateAwaitingCompletion State = "AwaitingCompletion"
	StateArtifactsVerified  State = "ArtifactsVerified"
	StateResolved           State = "Resolved"
	StateDone               State = "Done"
	StateRejected           State = "Rejected"
	StateFailed             State = "Failed"
)

// Orchestrator drives render jobs against a backend. It is safe for
// concurrent use; concurrent jobs must use distinct camera names.
type Orchestrator struct {
	backend    Backend
	outputRoot string
	timeout    time.Duration
	store      jobstore.Store // optional; best-effort persistence
	logger     *log.Logger

	mu       sync.Mutex
	inFlight map[string]bool // camera names with an active job
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout overrides the renderer completion timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithStore enables best-effort persistence of completed job records.
func WithStore(s jobstore.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator creates an orchestrator writing job output under
// outputRoot, one fresh uuid-named directory per job.
func NewOrchestrator(backend Backend, outputRoot string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:    backend,
		outputRoot: outputRoot,
		timeout:    DefaultTimeout,
		logger:     log.Default(),
		inFlight:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// job tracks the lifecycle of one request.
type job struct {
	id     string
	state  State
	logger *log.Logger
}

func (j *job) transition(s State) {
	j.logger.Debug("render job state", "job", j.id, "from", j.state, "to", s)
	j.state = s
}

// Render runs one job to completion. Every failure aborts the job and
// surfaces as a coded error; no partial response is ever returned.
func (o *Orchestrator) Render(ctx context.Context, sess *session.Session, req Request) (*Response, error) {
	req.ApplyDefaults()

	j := &job{id: uuid.NewString(), state: StateIdle, logger: o.logger}

	// Idle -> Validated. The stage is snapshotted here; a concurrent
	// open_stage cannot swap it out from under the job.
	stage, mode := sess.Snapshot()
	if stage == nil {
		j.transition(StateRejected)
		return nil, errors.New(errors.ErrCodePrecondition, "no active stage; call open_stage first")
	}
	if err := req.Validate(); err != nil {
		j.transition(StateRejected)
		return nil, err
	}
	if err := o.claimCamera(req.CameraName); err != nil {
		j.transition(StateRejected)
		return nil, err
	}
	defer o.releaseCamera(req.CameraName)
	j.transition(StateValidated)

	start := time.Now()
	observability.Render().OnJobStart(ctx, j.id, req.CameraName)
	var jobErr error
	defer func() {
		observability.Render().OnJobComplete(ctx, j.id, req.CameraName, time.Since(start), jobErr)
	}()

	resp, err := o.run(ctx, j, stage, string(mode), req)
	if err != nil {
		if j.state != StateRejected {
			j.transition(StateFailed)
		}
		jobErr = err
		return nil, err
	}
	j.transition(StateDone)

	o.logger.Info("rendered camera",
		"job", j.id,
		"camera", req.CameraName,
		"resolution", req.ImageResolution,
		"duration", time.Since(start).Round(time.Millisecond))

	o.persist(ctx, stage, string(mode), req, resp)
	return resp, nil
}

// run executes the submitted portion of the lifecycle. Cleanup of writer and
// product resources happens on every exit path.
func (o *Orchestrator) run(ctx context.Context, j *job, stage scene.Stage, mode string, req Request) (*Response, error) {
	width, height := req.ImageResolution[0], req.ImageResolution[1]

	// Validated -> JobSubmitted.
	cam, err := o.backend.CreateCamera(stage, req.CameraName, scene.CameraSpec{
		Position:           req.CameraPosition,
		RotationXYZ:        req.CameraRotation,
		FocalLength:        req.CameraFocalLength,
		HorizontalAperture: req.CameraHorizontalAperture,
	})
	if err != nil {
		return nil, err
	}
	product, err := o.backend.CreateProduct(cam, width, height, req.CameraName, mode)
	if err != nil {
		return nil, err
	}
	defer func() {
		if derr := o.backend.Dispose(product); derr != nil {
			o.logger.Warn("dispose render product", "job", j.id, "error", derr)
		}
	}()

	// At most one frame per request. This is a hard cap, not a default.
	if err := o.backend.Trigger(1); err != nil {
		return nil, err
	}
	j.transition(StateJobSubmitted)

	// JobSubmitted -> AwaitingCompletion. Fresh output directory per job:
	// directories are never reused, so concurrent jobs cannot collide.
	outputDir := filepath.Join(o.outputRoot, j.id)
	writer := o.backend.NewWriter()
	if err := writer.Initialize(outputDir, Channels{
		RGB:                  true,
		DistanceToImagePlane: true,
		ColorizeDepth:        true,
	}); err != nil {
		return nil, err
	}
	defer func() {
		if derr := writer.Detach(); derr != nil {
			o.logger.Warn("detach writer", "job", j.id, "error", derr)
		}
	}()
	if err := o.backend.Attach(writer, product); err != nil {
		return nil, err
	}
	j.transition(StateAwaitingCompletion)

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := o.backend.Run(runCtx); err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Wrap(errors.ErrCodeRenderTimeout, err,
				"renderer did not complete within %s", o.timeout)
		}
		return nil, err
	}

	// AwaitingCompletion -> ArtifactsVerified. A missing artifact is a
	// writer contract violation; the directory stays on disk for diagnosis.
	artifacts := ArtifactsIn(outputDir)
	if err := artifacts.Verify(); err != nil {
		return nil, err
	}
	observability.Render().OnArtifactsVerified(ctx, j.id, 3)
	j.transition(StateArtifactsVerified)

	// ArtifactsVerified -> Resolved. The camera prim is looked up fresh
	// under the product's namespace rather than trusting the handle from
	// submission.
	prim, ok := stage.PrimAtPath(product.CameraPath)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidCamera,
			"camera prim %s not found after render", product.CameraPath)
	}
	info, err := camera.Resolve(prim, width, height)
	if err != nil {
		return nil, err
	}
	j.transition(StateResolved)

	return &Response{
		JobID:          j.id,
		ColorImagePath: artifacts.ColorImage,
		DepthImagePath: artifacts.DepthImage,
		DepthArrayPath: artifacts.DepthArray,
		Camera:         info,
	}, nil
}

// persist saves a job record, best-effort. Store failures are logged and
// never surfaced to the render caller.
func (o *Orchestrator) persist(ctx context.Context, stage scene.Stage, mode string, req Request, resp *Response) {
	if o.store == nil {
		return
	}
	err := o.store.Save(ctx, &jobstore.Record{
		JobID:          resp.JobID,
		CameraName:     req.CameraName,
		StagePath:      stage.Path(),
		Mode:           mode,
		ColorImagePath: resp.ColorImagePath,
		DepthImagePath: resp.DepthImagePath,
		DepthArrayPath: resp.DepthArrayPath,
		Camera:         resp.Camera,
		CreatedAt:      time.Now().UTC(),
	})
	observability.Store().OnRecordSave(ctx, "jobstore", resp.JobID, err)
	if err != nil {
		o.logger.Warn("persist job record", "job", resp.JobID, "error", err)
	}
}

// claimCamera reserves a camera name for the duration of a job. Concurrent
// jobs reusing the same name are rejected rather than disambiguated.
func (o *Orchestrator) claimCamera(name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[name] {
		return errors.New(errors.ErrCodeInvalidInput,
			"camera name %q already has a render in flight", name)
	}
	o.inFlight[name] = true
	return nil
}

func (o *Orchestrator) releaseCamera(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, name)
}
