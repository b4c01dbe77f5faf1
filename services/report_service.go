package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/Dosada05/festival-teams/storage"
)

const reportKeyPrefix = "reports/teams"

// ReportService aggregates reconciled teams for administrators.
type ReportService interface {
	TeamStatistics(ctx context.Context, auth models.AuthContext, eventRef string) (*models.TeamStatistics, error)
	ExportTeamReport(ctx context.Context, auth models.AuthContext, eventRef string) (*models.TeamReport, error)
}

type reportService struct {
	teamRepo   repositories.TeamRepository
	reconciler ReconciliationService
	uploader   storage.FileUploader
	now        func() time.Time
	logger     *slog.Logger
}

// NewReportService accepts a nil uploader; export then fails with ErrReportStorageDisabled.
func NewReportService(teamRepo repositories.TeamRepository, reconciler ReconciliationService, uploader storage.FileUploader, logger *slog.Logger) ReportService {
	return &reportService{
		teamRepo:   teamRepo,
		reconciler: reconciler,
		uploader:   uploader,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *reportService) reconcileEvent(ctx context.Context, auth models.AuthContext, eventRef string) ([]*models.ReconciledTeamView, error) {
	if !auth.IsAdmin() {
		return nil, ErrAdminOnly
	}
	teams, err := s.teamRepo.ListByEvent(ctx, strings.TrimSpace(eventRef))
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of event %q: %w", eventRef, err)
	}
	return s.reconciler.ReconcileTeams(ctx, teams)
}

// TeamStatistics sums team_payment_amount once per registered team.
func (s *reportService) TeamStatistics(ctx context.Context, auth models.AuthContext, eventRef string) (*models.TeamStatistics, error) {
	views, err := s.reconcileEvent(ctx, auth, eventRef)
	if err != nil {
		return nil, err
	}

	stats := &models.TeamStatistics{EventRef: strings.TrimSpace(eventRef), TeamCount: len(views)}
	for _, v := range views {
		stats.MemberCount += v.ActiveMemberCount
		if !v.IsRegistered {
			continue
		}
		stats.RegisteredTeamCount++
		if v.TeamPaymentAmount != nil {
			stats.TotalRevenue += *v.TeamPaymentAmount
		}
	}
	return stats, nil
}

func (s *reportService) ExportTeamReport(ctx context.Context, auth models.AuthContext, eventRef string) (*models.TeamReport, error) {
	if !auth.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if s.uploader == nil {
		return nil, ErrReportStorageDisabled
	}
	views, err := s.reconcileEvent(ctx, auth, eventRef)
	if err != nil {
		return nil, err
	}

	body, err := encodeTeamReport(views)
	if err != nil {
		return nil, fmt.Errorf("failed to encode team report: %w", err)
	}

	key := reportKey(eventRef, s.now())
	result, err := s.uploader.Upload(ctx, key, "text/csv", bytes.NewReader(body))
	if err != nil {
		s.logger.Error("team report upload failed", slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrReportUploadFailed, err)
	}

	s.logger.Info("team report exported", slog.String("key", result.Key), slog.Int("teams", len(views)))
	return &models.TeamReport{Key: result.Key, URL: result.Location, TeamCount: len(views)}, nil
}

func reportKey(eventRef string, at time.Time) string {
	scope := strings.TrimSpace(eventRef)
	if scope == "" {
		scope = "all"
	}
	scope = strings.NewReplacer("/", "_", " ", "_").Replace(scope)
	return fmt.Sprintf("%s/%s/%s.csv", reportKeyPrefix, scope, at.UTC().Format("20060102T150405Z"))
}

var teamReportHeader = []string{
	"team_id", "team_name", "event_ref", "leader", "active_members", "max_members",
	"registration_state", "registered_count", "paid_slots", "new_members_to_pay",
	"team_payment_amount", "transaction_id", "members",
}

func encodeTeamReport(views []*models.ReconciledTeamView) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(teamReportHeader); err != nil {
		return nil, err
	}
	for _, v := range views {
		leader := ""
		names := make([]string, 0, len(v.Members))
		for _, m := range v.Members {
			name := m.UserID.String()
			if m.User != nil && m.User.FullName != "" {
				name = m.User.FullName
			}
			if m.Role == models.RoleLeader {
				leader = name
			}
			names = append(names, name)
		}
		amount := ""
		if v.TeamPaymentAmount != nil {
			amount = strconv.FormatFloat(*v.TeamPaymentAmount, 'f', 2, 64)
		}
		record := []string{
			v.ID.String(),
			v.Name,
			v.EventRef,
			leader,
			strconv.Itoa(v.ActiveMemberCount),
			strconv.Itoa(v.MaxMembers),
			string(v.RegistrationState),
			strconv.Itoa(v.RegisteredCount),
			strconv.Itoa(v.PaidSlots),
			strconv.Itoa(v.NewMembersToPay),
			amount,
			derefString(v.TransactionID),
			strings.Join(names, "; "),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
