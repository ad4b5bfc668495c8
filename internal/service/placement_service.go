package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	"github.com/noah-isme/campus-api/internal/workflow"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

const interviewTimeLayout = "2006-01-02 15:04"

type placementStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, int, error)
	UpdateJob(ctx context.Context, job *models.Job, expectedVersion int) error
	DeleteJob(ctx context.Context, id string) error
	CreateApplication(ctx context.Context, application *models.JobApplication) error
	GetApplication(ctx context.Context, id string) (*models.JobApplication, error)
	ListApplications(ctx context.Context, filter models.PlacementFilter) ([]models.JobApplication, int, error)
	UpdateApplication(ctx context.Context, application *models.JobApplication, expectedVersion int) error
	CreateInterview(ctx context.Context, interview *models.Interview, application *models.JobApplication, expectedVersion int) error
	ListInterviews(ctx context.Context, filter models.PlacementFilter) ([]models.Interview, int, error)
	CreateOffer(ctx context.Context, offer *models.Offer, application *models.JobApplication, expectedVersion int) error
	ListOffers(ctx context.Context, filter models.PlacementFilter) ([]models.Offer, int, error)
}

// PlacementService runs job postings and the application pipeline.
type PlacementService struct {
	store     placementStore
	guard     *authz.Guard
	validator *validator.Validate
	effects   WorkflowEffects
}

// NewPlacementService constructs a PlacementService.
func NewPlacementService(store placementStore, guard *authz.Guard, validate *validator.Validate, effects WorkflowEffects) *PlacementService {
	if validate == nil {
		validate = validator.New()
	}
	return &PlacementService{store: store, guard: guard, validator: validate, effects: effects}
}

// CreateJob posts a job. Status defaults to Active.
func (s *PlacementService) CreateJob(ctx context.Context, claims *models.JWTClaims, req dto.JobRequest) (*models.Job, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleHR, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Company) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Title and company are required")
	}
	if err := validationError(s.validator, req, "openings must be positive"); err != nil {
		return nil, err
	}
	job := &models.Job{Status: models.JobActive, CreatedBy: user.ID}
	if err := applyJobRequest(job, req); err != nil {
		return nil, err
	}
	name := user.Name
	job.CreatorName = &name
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, storeError(err, "job", "create job")
	}
	s.effects.audit(ctx, user.ID, models.AuditActionJobChange, "job", job.ID, nil, map[string]interface{}{"status": job.Status, "title": job.Title})
	s.effects.invalidateDashboards(ctx)
	return job, nil
}

// Jobs lists postings newest first. Students only ever see Active jobs; staff may filter
// by status and by their own postings.
func (s *PlacementService) Jobs(ctx context.Context, claims *models.JWTClaims, query dto.JobQuery, page models.Page) ([]models.Job, int, error) {
	if claims == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	page = page.Normalized()
	filter := models.JobFilter{Limit: page.Limit, Offset: page.Offset}
	switch claims.Role {
	case models.RoleStudent:
		filter.Status = models.JobActive
	case models.RoleHR, models.RoleAdmin:
		if query.Status != "" {
			status, ok := models.ParseJobStatus(query.Status)
			if !ok {
				return nil, 0, appErrors.Clone(appErrors.ErrValidation, "Valid status (Active, Draft, Screening, Closed) is required")
			}
			filter.Status = status
		}
		if query.Mine {
			filter.CreatedBy = claims.UserID
		}
	default:
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, "Access denied")
	}
	jobs, total, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err, "job", "list jobs")
	}
	return jobs, total, nil
}

// Job returns one posting. Drafts are hidden from students.
func (s *PlacementService) Job(ctx context.Context, claims *models.JWTClaims, id string) (*models.Job, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, storeError(err, "job", "load job")
	}
	if claims.Role == models.RoleStudent && job.Status == models.JobDraft {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	return job, nil
}

// UpdateJob edits a posting the caller owns. Empty fields are left unchanged.
func (s *PlacementService) UpdateJob(ctx context.Context, claims *models.JWTClaims, id string, req dto.JobRequest) (*models.Job, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleHR, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if req.Version <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "version is required")
	}
	if err := validationError(s.validator, req, "openings must be positive"); err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, storeError(err, "job", "load job")
	}
	if err := requireJobOwner(job, claims, "update"); err != nil {
		return nil, err
	}
	before := job.Status
	if err := applyJobRequest(job, req); err != nil {
		return nil, err
	}
	if err := s.store.UpdateJob(ctx, job, req.Version); err != nil {
		err = storeError(err, "job", "update job")
		s.effects.transition("job", "update", err)
		return nil, err
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "job",
		verb:        "update",
		auditAction: models.AuditActionJobChange,
		actorID:     user.ID,
		resourceID:  job.ID,
		before:      map[string]interface{}{"status": before},
		after:       map[string]interface{}{"status": job.Status, "version": job.Version},
	})
	return job, nil
}

// DeleteJob removes a posting the caller owns with everything filed against it.
func (s *PlacementService) DeleteJob(ctx context.Context, claims *models.JWTClaims, id string) error {
	user, err := s.guard.Reverify(ctx, claims, models.RoleHR, models.RoleAdmin)
	if err != nil {
		return err
	}
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return storeError(err, "job", "load job")
	}
	if err := requireJobOwner(job, claims, "delete"); err != nil {
		return err
	}
	if err := s.store.DeleteJob(ctx, id); err != nil {
		return storeError(err, "job", "delete job")
	}
	s.effects.audit(ctx, user.ID, models.AuditActionJobChange, "job", id, map[string]interface{}{"title": job.Title, "status": job.Status}, nil)
	s.effects.invalidateDashboards(ctx)
	return nil
}

// Apply files the caller's application with an uploaded resume.
func (s *PlacementService) Apply(ctx context.Context, claims *models.JWTClaims, jobID string, req dto.ApplyJobRequest) (*models.JobApplication, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, storeError(err, "job", "load job")
	}
	if err := workflow.AcceptsApplications(job.Status); err != nil {
		return nil, err
	}
	resume := strings.TrimSpace(req.ResumeURL)
	if resume == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Upload a resume to apply")
	}
	name, title, company, owner := user.Name, job.Title, job.Company, job.CreatedBy
	application := &models.JobApplication{
		JobID:       job.ID,
		JobTitle:    &title,
		Company:     &company,
		JobOwner:    &owner,
		StudentID:   user.ID,
		StudentName: &name,
		Status:      models.ApplicationPending,
		ResumeURL:   resume,
		ResumeName:  trimmedOrNil(&req.ResumeName),
		Notes:       strings.TrimSpace(req.Notes),
	}
	if err := s.store.CreateApplication(ctx, application); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "You already applied to this job")
		}
		return nil, storeError(err, "application", "apply")
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "job_application",
		verb:        "apply",
		auditAction: models.AuditActionApplicationCreate,
		actorID:     user.ID,
		resourceID:  application.ID,
		after:       map[string]interface{}{"status": application.Status, "jobId": job.ID},
	}, models.Notification{
		RecipientID: job.CreatedBy,
		Subject:     fmt.Sprintf("New application for %s", job.Title),
		Body:        fmt.Sprintf("%s applied to %s at %s.", user.Name, job.Title, job.Company),
		Resource:    "job_application",
		ResourceID:  application.ID,
	})
	return application, nil
}

// Applications lists applications: students see their own, HR the ones filed against
// their postings and admins every one.
func (s *PlacementService) Applications(ctx context.Context, claims *models.JWTClaims, query dto.ApplicationQuery, page models.Page) ([]models.JobApplication, int, error) {
	filter, err := placementScope(claims, query, page)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.ListApplications(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err, "application", "list applications")
	}
	return items, total, nil
}

// Interviews lists interview rounds, scoped like Applications.
func (s *PlacementService) Interviews(ctx context.Context, claims *models.JWTClaims, query dto.ApplicationQuery, page models.Page) ([]models.Interview, int, error) {
	filter, err := placementScope(claims, query, page)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.ListInterviews(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err, "interview", "list interviews")
	}
	return items, total, nil
}

// Offers lists offers, scoped like Applications.
func (s *PlacementService) Offers(ctx context.Context, claims *models.JWTClaims, query dto.ApplicationQuery, page models.Page) ([]models.Offer, int, error) {
	filter, err := placementScope(claims, query, page)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.ListOffers(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err, "offer", "list offers")
	}
	return items, total, nil
}

// UpdateApplicationStatus moves an application along the pipeline. The applicant may
// only withdraw; the job owner or an admin makes every other move.
func (s *PlacementService) UpdateApplicationStatus(ctx context.Context, claims *models.JWTClaims, id string, req dto.ApplicationStatusRequest) (*models.JobApplication, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent, models.RoleHR, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	next, err := workflow.ParseApplicationStatus(req.Status)
	if err != nil {
		return nil, err
	}
	if err := validationError(s.validator, req, "version is required"); err != nil {
		return nil, err
	}
	application, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, storeError(err, "application", "load application")
	}
	if user.Role == models.RoleStudent {
		if application.StudentID != user.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "You can only withdraw your own applications")
		}
	} else if err := requireApplicationOwner(application, claims, "update applications for this job"); err != nil {
		return nil, err
	}
	if err := workflow.ApplicationTransition(application.Status, next, user.Role); err != nil {
		s.effects.transition("job_application", string(next), err)
		return nil, err
	}

	before := application.Status
	application.Status = next
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		application.Notes = notes
	}
	if err := s.store.UpdateApplication(ctx, application, req.Version); err != nil {
		err = storeError(err, "application", "update application")
		s.effects.transition("job_application", string(next), err)
		return nil, err
	}

	recipient := application.StudentID
	body := fmt.Sprintf("Your application for %s is now %s.", valueOr(application.JobTitle, "the job"), next)
	if next == models.ApplicationWithdrawn {
		recipient = valueOr(application.JobOwner, "")
		body = fmt.Sprintf("%s withdrew their application for %s.", user.Name, valueOr(application.JobTitle, "the job"))
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "job_application",
		verb:        string(next),
		auditAction: models.AuditActionApplicationTransit,
		actorID:     user.ID,
		resourceID:  application.ID,
		before:      map[string]interface{}{"status": before},
		after:       map[string]interface{}{"status": next},
	}, models.Notification{
		RecipientID: recipient,
		Subject:     "Application update",
		Body:        body,
		Resource:    "job_application",
		ResourceID:  application.ID,
	})
	return application, nil
}

// ScheduleInterview books a round and moves the application to Interview Scheduled in
// the same transaction.
func (s *PlacementService) ScheduleInterview(ctx context.Context, claims *models.JWTClaims, applicationID string, req dto.ScheduleInterviewRequest) (*models.Interview, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleHR, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Date and time are required")
	}
	at, err := time.ParseInLocation(interviewTimeLayout, strings.TrimSpace(req.Date)+" "+strings.TrimSpace(req.Time), time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD and time HH:MM")
	}
	if err := validationError(s.validator, req, "version is required"); err != nil {
		return nil, err
	}
	application, err := s.pipelineStep(ctx, claims, applicationID, models.ApplicationInterviewScheduled, "schedule interviews for this job")
	if err != nil {
		return nil, err
	}
	interview := &models.Interview{
		ApplicationID: application.ID,
		JobID:         application.JobID,
		JobTitle:      application.JobTitle,
		Company:       application.Company,
		StudentID:     application.StudentID,
		StudentName:   application.StudentName,
		ScheduledBy:   user.ID,
		ScheduledAt:   at,
		Mode:          strings.TrimSpace(req.Mode),
		RoundType:     strings.TrimSpace(req.RoundType),
		MeetingLink:   strings.TrimSpace(req.MeetingLink),
		Status:        models.InterviewScheduled,
		Notes:         strings.TrimSpace(req.Notes),
	}
	before := application.Status
	application.Status = models.ApplicationInterviewScheduled
	if err := s.store.CreateInterview(ctx, interview, application, req.Version); err != nil {
		err = storeError(err, "interview", "schedule interview")
		s.effects.transition("job_application", string(models.ApplicationInterviewScheduled), err)
		return nil, err
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "job_application",
		verb:        string(models.ApplicationInterviewScheduled),
		auditAction: models.AuditActionInterviewSchedule,
		actorID:     user.ID,
		resourceID:  application.ID,
		before:      map[string]interface{}{"status": before},
		after:       map[string]interface{}{"status": application.Status, "interviewId": interview.ID, "scheduledAt": at},
	}, models.Notification{
		RecipientID: application.StudentID,
		Subject:     fmt.Sprintf("Interview scheduled: %s", valueOr(application.JobTitle, "job")),
		Body:        fmt.Sprintf("Your %s interview is on %s UTC.", roundLabel(interview.RoundType), at.Format(interviewTimeLayout)),
		Resource:    "interview",
		ResourceID:  interview.ID,
	})
	return interview, nil
}

// SendOffer extends an offer and moves the application to Offered in the same transaction.
func (s *PlacementService) SendOffer(ctx context.Context, claims *models.JWTClaims, applicationID string, req dto.SendOfferRequest) (*models.Offer, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleHR, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.CTC) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "CTC is required")
	}
	if err := validationError(s.validator, req, "version is required"); err != nil {
		return nil, err
	}
	application, err := s.pipelineStep(ctx, claims, applicationID, models.ApplicationOffered, "send offers for this job")
	if err != nil {
		return nil, err
	}
	offer := &models.Offer{
		ApplicationID:   application.ID,
		JobID:           application.JobID,
		JobTitle:        application.JobTitle,
		Company:         application.Company,
		StudentID:       application.StudentID,
		StudentName:     application.StudentName,
		IssuedBy:        user.ID,
		CTC:             strings.TrimSpace(req.CTC),
		Status:          models.OfferPending,
		OfferLetterURL:  trimmedOrNil(&req.OfferLetterURL),
		OfferLetterName: trimmedOrNil(&req.OfferLetterName),
	}
	before := application.Status
	application.Status = models.ApplicationOffered
	if err := s.store.CreateOffer(ctx, offer, application, req.Version); err != nil {
		err = storeError(err, "offer", "send offer")
		s.effects.transition("job_application", string(models.ApplicationOffered), err)
		return nil, err
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "job_application",
		verb:        string(models.ApplicationOffered),
		auditAction: models.AuditActionOfferSend,
		actorID:     user.ID,
		resourceID:  application.ID,
		before:      map[string]interface{}{"status": before},
		after:       map[string]interface{}{"status": application.Status, "offerId": offer.ID, "ctc": offer.CTC},
	}, models.Notification{
		RecipientID: application.StudentID,
		Subject:     fmt.Sprintf("Offer from %s", valueOr(application.Company, "a recruiter")),
		Body:        fmt.Sprintf("You have an offer for %s with CTC %s.", valueOr(application.JobTitle, "the job"), offer.CTC),
		Resource:    "offer",
		ResourceID:  offer.ID,
	})
	return offer, nil
}

// pipelineStep loads an application the caller may manage and checks it can move to next.
func (s *PlacementService) pipelineStep(ctx context.Context, claims *models.JWTClaims, id string, next models.ApplicationStatus, action string) (*models.JobApplication, error) {
	application, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, storeError(err, "application", "load application")
	}
	if err := requireApplicationOwner(application, claims, action); err != nil {
		return nil, err
	}
	if err := workflow.ApplicationTransition(application.Status, next, claims.Role); err != nil {
		s.effects.transition("job_application", string(next), err)
		return nil, err
	}
	return application, nil
}

func applyJobRequest(job *models.Job, req dto.JobRequest) error {
	if req.Status != "" {
		status, ok := models.ParseJobStatus(req.Status)
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, "Valid status (Active, Draft, Screening, Closed) is required")
		}
		job.Status = status
	}
	if req.Deadline != "" {
		deadline, err := parseAttendanceDate(req.Deadline)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "deadline must be YYYY-MM-DD")
		}
		job.Deadline = &deadline
	}
	setIfPresent(&job.Title, req.Title)
	setIfPresent(&job.Company, req.Company)
	setIfPresent(&job.JobType, req.JobType)
	setIfPresent(&job.Mode, req.Mode)
	setIfPresent(&job.Location, req.Location)
	setIfPresent(&job.Salary, req.Salary)
	setIfPresent(&job.Description, req.Description)
	if req.Openings != nil {
		job.Openings = req.Openings
	}
	if req.Eligibility != nil {
		job.Eligibility = *req.Eligibility
	}
	if req.Responsibilities != nil {
		job.Responsibilities = models.StringList(trimmedStrings(req.Responsibilities))
	}
	return nil
}

func setIfPresent(field *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*field = v
	}
}

func requireJobOwner(job *models.Job, claims *models.JWTClaims, verb string) error {
	if claims.Role == models.RoleAdmin || job.CreatedBy == claims.UserID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("Only job owner or admin can %s this job", verb))
}

func requireApplicationOwner(application *models.JobApplication, claims *models.JWTClaims, action string) error {
	if claims.Role == models.RoleAdmin {
		return nil
	}
	if application.JobOwner != nil && *application.JobOwner == claims.UserID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "Only job owner or admin can "+action)
}

// placementScope narrows a pipeline listing to what the caller may see.
func placementScope(claims *models.JWTClaims, query dto.ApplicationQuery, page models.Page) (models.PlacementFilter, error) {
	if claims == nil {
		return models.PlacementFilter{}, appErrors.ErrUnauthorized
	}
	page = page.Normalized()
	filter := models.PlacementFilter{JobID: strings.TrimSpace(query.JobID), Limit: page.Limit, Offset: page.Offset}
	switch claims.Role {
	case models.RoleStudent:
		filter.StudentID = claims.UserID
	case models.RoleHR:
		filter.JobOwner = claims.UserID
	case models.RoleAdmin:
	default:
		return filter, appErrors.Clone(appErrors.ErrForbidden, "Access denied")
	}
	return filter, nil
}

func valueOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func roundLabel(round string) string {
	if round == "" {
		return "next"
	}
	return round
}
