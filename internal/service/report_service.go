package service

import (
	"context"
	"io"
	"time"

	"diligence-tracker/internal/model"
	"diligence-tracker/internal/report"
	"diligence-tracker/internal/tracker"
)

// ReportService assembles printable reports and CSV exports of a deal's
// request list, using the same filter and ordering as the list views.
type ReportService struct {
	deals      *DealService
	requests   *RequestService
	categories *CategoryService
	comments   *CommentService
	documents  *DocumentService
	members    *MemberService
}

func NewReportService(deals *DealService, requests *RequestService, categories *CategoryService, comments *CommentService, documents *DocumentService, members *MemberService) *ReportService {
	return &ReportService{
		deals:      deals,
		requests:   requests,
		categories: categories,
		comments:   comments,
		documents:  documents,
		members:    members,
	}
}

// HTML writes the printable report of a deal.
func (s *ReportService) HTML(ctx context.Context, w io.Writer, dealID uint, c tracker.Criteria, o tracker.Order) error {
	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		return err
	}
	groups, err := s.requests.Grouped(ctx, dealID, c, o)
	if err != nil {
		return err
	}

	var ids []uint
	for _, g := range groups {
		for _, r := range g.Requests {
			ids = append(ids, r.ID)
		}
	}
	docs, err := s.documents.ForRequests(ctx, ids)
	if err != nil {
		return err
	}
	comments, err := s.comments.Approved(ctx, ids)
	if err != nil {
		return err
	}
	names, err := s.memberNames(ctx)
	if err != nil {
		return err
	}

	d := report.Data{
		Deal:        *deal,
		Groups:      groups,
		Documents:   make(map[uint][]model.Document),
		Comments:    make(map[uint][]model.Comment),
		Assignees:   make(map[uint][]string),
		GeneratedAt: time.Now().UTC(),
	}
	for _, doc := range docs {
		d.Documents[doc.RequestID] = append(d.Documents[doc.RequestID], doc)
	}
	for _, c := range comments {
		d.Comments[c.RequestID] = append(d.Comments[c.RequestID], c)
	}
	for _, g := range groups {
		for _, r := range g.Requests {
			for _, id := range r.Assignees {
				if n, ok := names[id]; ok {
					d.Assignees[r.ID] = append(d.Assignees[r.ID], n)
				}
			}
		}
	}
	return report.RenderHTML(w, d)
}

// CSV writes the filtered and ordered request list of a deal.
func (s *ReportService) CSV(ctx context.Context, w io.Writer, dealID uint, c tracker.Criteria, o tracker.Order) error {
	if _, err := s.deals.Get(ctx, dealID); err != nil {
		return err
	}
	requests, err := s.requests.List(ctx, dealID, c, o)
	if err != nil {
		return err
	}
	categories, err := s.categories.Names(ctx)
	if err != nil {
		return err
	}
	names, err := s.memberNames(ctx)
	if err != nil {
		return err
	}
	return report.WriteCSV(w, requests, categories, names)
}

func (s *ReportService) memberNames(ctx context.Context) (map[uint]string, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(members))
	for _, m := range members {
		names[m.ID] = m.DisplayName()
	}
	return names, nil
}
