package handler

import (
    "context"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/reschevie/reschevie-api/internal/middleware"
    "github.com/reschevie/reschevie-api/internal/queue"
    "github.com/reschevie/reschevie-api/internal/repository"
    queue_publisher "github.com/reschevie/reschevie-api/internal/service"
    "github.com/reschevie/reschevie-api/internal/utils"
)

// InquiryHandler implements inquiry submission for shoppers and the
// status/delete workflow for admins.  Submission is the only operation in
// the API that needs an explicit multi-statement transaction: the header
// and its item rows commit or roll back together.
type InquiryHandler struct {
    Products  *repository.ProductRepo
    Inquiries *repository.InquiryRepo
}

func NewInquiryHandler(products *repository.ProductRepo, inquiries *repository.InquiryRepo) *InquiryHandler {
    if products == nil || inquiries == nil {
        panic("nil repository passed to NewInquiryHandler")
    }
    return &InquiryHandler{Products: products, Inquiries: inquiries}
}

type submitInquiryReq struct {
    Fname       string        `json:"fname"`
    Lname       string        `json:"lname"`
    Email       string        `json:"email"`
    Phone       string        `json:"phone"`
    ContactPref string        `json:"contactPref"`
    Notes       string        `json:"notes"`
    Items       []interface{} `json:"items"`
}

// normalizeItems filters the raw item list down to unique positive integer
// product IDs.  Non-numeric and non-positive entries are dropped silently
// rather than failing the whole request; duplicates collapse to one.
func normalizeItems(raw []interface{}) []uint64 {
    ids := make([]uint64, 0, len(raw))
    seen := make(map[uint64]struct{})
    for _, entry := range raw {
        var v int64
        switch t := entry.(type) {
        case float64:
            if t != float64(int64(t)) {
                continue
            }
            v = int64(t)
        case string:
            n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
            if err != nil {
                continue
            }
            v = n
        default:
            continue
        }
        if v <= 0 {
            continue
        }
        id := uint64(v)
        if _, ok := seen[id]; ok {
            continue
        }
        seen[id] = struct{}{}
        ids = append(ids, id)
    }
    return ids
}

// Submit handles POST /v1/inquiries.  Anonymous and authenticated shoppers
// both may submit; when a session is present the inquiry is attributed to
// that user.  Validation order: required fields, email grammar, item list,
// catalog existence.  Nothing is written until every check passes.
func (h *InquiryHandler) Submit(c echo.Context) error {
    var req submitInquiryReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Invalid JSON body")
    }
    req.Fname = strings.TrimSpace(req.Fname)
    req.Lname = strings.TrimSpace(req.Lname)
    req.Email = strings.TrimSpace(req.Email)
    req.Phone = strings.TrimSpace(req.Phone)
    req.Notes = strings.TrimSpace(req.Notes)

    switch {
    case req.Fname == "":
        return fail(c, http.StatusBadRequest, "Missing required field: fname")
    case req.Lname == "":
        return fail(c, http.StatusBadRequest, "Missing required field: lname")
    case req.Email == "":
        return fail(c, http.StatusBadRequest, "Missing required field: email")
    }
    if !utils.ValidEmail(req.Email) {
        return fail(c, http.StatusBadRequest, "Invalid email format")
    }
    if len(req.Items) == 0 {
        return fail(c, http.StatusBadRequest, "At least one product must be included in the inquiry")
    }
    items := normalizeItems(req.Items)
    if len(items) == 0 {
        return fail(c, http.StatusBadRequest, "Invalid product IDs in inquiry")
    }
    contactPref := repository.NormalizeContactPref(req.ContactPref)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ok, err := h.Products.ExistsAll(ctx, items)
    if err != nil {
        log.Printf("inquiry: product existence check failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to submit inquiry. Please try again.")
    }
    if !ok {
        return fail(c, http.StatusBadRequest, "One or more products do not exist")
    }

    rec := repository.InquiryRecord{
        Fname:           req.Fname,
        Lname:           req.Lname,
        Email:           req.Email,
        Phone:           req.Phone,
        ContactPref:     contactPref,
        SpecialRequests: req.Notes,
    }
    if ident, authed := middleware.CurrentIdentity(c); authed {
        uid := ident.ID
        rec.UserID = &uid
    }

    // Header and items commit or roll back together.
    tx, err := h.Inquiries.DB().BeginTx(ctx, nil)
    if err != nil {
        log.Printf("inquiry: begin tx failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to submit inquiry. Please try again.")
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := h.Inquiries.CreateTx(ctx, tx, &rec); err != nil {
        log.Printf("inquiry: header insert failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to submit inquiry. Please try again.")
    }
    if err := h.Inquiries.CreateItemsBulkTx(ctx, tx, rec.ID, items); err != nil {
        log.Printf("inquiry: item insert failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to submit inquiry. Please try again.")
    }
    if err := tx.Commit(); err != nil {
        log.Printf("inquiry: commit failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to submit inquiry. Please try again.")
    }
    committed = true

    // Best-effort notification; the inquiry is already durable.
    ev := queue.InquirySubmittedEvent{
        InquiryID:   rec.ID,
        UserID:      rec.UserID,
        Fname:       rec.Fname,
        Lname:       rec.Lname,
        Email:       rec.Email,
        ContactPref: rec.ContactPref,
        ProductIDs:  items,
        SubmittedAt: time.Now().UTC().Format(time.RFC3339),
    }
    go func() {
        pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer pubCancel()
        _ = queue_publisher.PublishInquirySubmitted(pubCtx, ev)
    }()

    return c.JSON(http.StatusOK, echo.Map{"success": true, "inquiry_id": rec.ID})
}

// List handles GET /v1/admin/inquiries.  An optional ?status= filter must be
// one of the four workflow states; anything else is rejected rather than
// silently ignored.  The response is a bare array, newest submission first,
// each inquiry carrying its resolved items.
func (h *InquiryHandler) List(c echo.Context) error {
    statusFilter := c.QueryParam("status")
    if statusFilter != "" && !repository.ValidStatus(statusFilter) {
        return fail(c, http.StatusBadRequest, "Invalid status filter")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    details, err := h.Inquiries.List(ctx, statusFilter)
    if err != nil {
        log.Printf("inquiry: list failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to load inquiries")
    }
    return c.JSON(http.StatusOK, details)
}

type updateStatusReq struct {
    InquiryID uint64 `json:"inquiry_id"`
    Status    string `json:"status"`
}

// UpdateStatus handles PUT /v1/admin/inquiries.  The inquiry must exist and
// the new status must be one of the four workflow states; a missing inquiry
// is a 404, a bad status a 400.
func (h *InquiryHandler) UpdateStatus(c echo.Context) error {
    var req updateStatusReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Invalid JSON body")
    }
    if req.InquiryID == 0 {
        return fail(c, http.StatusBadRequest, "Invalid inquiry ID")
    }
    if !repository.ValidStatus(req.Status) {
        return fail(c, http.StatusBadRequest, "Invalid status value")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    exists, err := h.Inquiries.Exists(ctx, req.InquiryID)
    if err != nil {
        log.Printf("inquiry: existence check failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to update inquiry status")
    }
    if !exists {
        return fail(c, http.StatusNotFound, "Inquiry not found")
    }
    if err := h.Inquiries.UpdateStatus(ctx, req.InquiryID, req.Status); err != nil {
        log.Printf("inquiry: status update failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to update inquiry status")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Delete handles DELETE /v1/admin/inquiries?id=.  Deleting the header
// removes its items in the same transaction.
func (h *InquiryHandler) Delete(c echo.Context) error {
    id, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
    if err != nil || id == 0 {
        return fail(c, http.StatusBadRequest, "Invalid inquiry ID")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Inquiries.Delete(ctx, id); err != nil {
        if err == repository.ErrInquiryNotFound {
            return fail(c, http.StatusNotFound, "Inquiry not found")
        }
        log.Printf("inquiry: delete failed: %v", err)
        return fail(c, http.StatusInternalServerError, "Failed to delete inquiry")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}
