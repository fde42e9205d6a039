// Package requests queues power and create requests so RPC callers can
// return at once and poll for the outcome.
package requests

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hydrogen/hydrogen"
)

type reqType string

const (
	VMSTART    reqType = "VMSTART"
	VMSHUTDOWN reqType = "VMSHUTDOWN"
	VMREBOOT   reqType = "VMREBOOT"
	VMRESET    reqType = "VMRESET"
	VMSTOP     reqType = "VMSTOP"
	VMCREATE   reqType = "VMCREATE"
)

var actionTypes = map[hydrogen.PowerAction]reqType{
	hydrogen.PowerStart:    VMSTART,
	hydrogen.PowerShutdown: VMSHUTDOWN,
	hydrogen.PowerReboot:   VMREBOOT,
	hydrogen.PowerReset:    VMRESET,
	hydrogen.PowerStop:     VMSTOP,
}

type Request struct {
	ID         string `gorm:"primaryKey;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
	StartedAt  sql.NullTime   `gorm:"index"`
	Successful bool           `gorm:"default:False;check:successful IN (0,1)"`
	Complete   bool           `gorm:"default:False;check:complete IN (0,1)"`
	Type       reqType        `gorm:"type:req_type"`
	Data       string
}

type VMReqData struct {
	VMID string `json:"vm_id"`
}

type VMCreateData struct {
	Spec hydrogen.CreateReq `json:"spec"`
}

func (req *Request) BeforeCreate(_ *gorm.DB) error {
	if req == nil {
		return errRequestNil
	}

	req.ID = uuid.NewString()

	return nil
}

// TypeForAction returns the request type that carries out action.
func TypeForAction(action hydrogen.PowerAction) (reqType, error) {
	aReqType, ok := actionTypes[action]
	if !ok {
		return "", fmt.Errorf("%w: %s", errInvalidRequest, action)
	}

	return aReqType, nil
}

// Action is the power action a request carries out.
func (req *Request) Action() (hydrogen.PowerAction, error) {
	for action, aReqType := range actionTypes {
		if aReqType == req.Type {
			return action, nil
		}
	}

	return "", fmt.Errorf("%w: type %s", errInvalidRequest, req.Type)
}

func (req *Request) VMID() (string, error) {
	var reqData VMReqData

	err := json.Unmarshal([]byte(req.Data), &reqData)
	if err != nil {
		return "", fmt.Errorf("%w: bad data: %w", errInvalidRequest, err)
	}

	if reqData.VMID == "" {
		return "", fmt.Errorf("%w: no vm id", errInvalidRequest)
	}

	return reqData.VMID, nil
}

// CreateSpec is what a VMCREATE request provisions.
func (req *Request) CreateSpec() (hydrogen.CreateReq, error) {
	var reqData VMCreateData

	if req.Type != VMCREATE {
		return hydrogen.CreateReq{}, fmt.Errorf("%w: type %s has no create spec", errInvalidRequest, req.Type)
	}

	err := json.Unmarshal([]byte(req.Data), &reqData)
	if err != nil {
		return hydrogen.CreateReq{}, fmt.Errorf("%w: bad data: %w", errInvalidRequest, err)
	}

	return reqData.Spec, nil
}

func validVMReqType(aReqType reqType) bool {
	for _, validType := range actionTypes {
		if aReqType == validType {
			return true
		}
	}

	return false
}

// CreateVMReq queues a power request unless one is already pending for the VM.
func CreateVMReq(requestType reqType, vmID string) (Request, error) {
	if !validVMReqType(requestType) {
		return Request{}, errInvalidRequest
	}

	_, err := uuid.Parse(vmID)
	if err != nil {
		return Request{}, fmt.Errorf("%w: invalid vm id %q", errInvalidRequest, vmID)
	}

	reqData, err := json.Marshal(VMReqData{VMID: vmID})
	if err != nil {
		return Request{}, fmt.Errorf("error marshaling request data: %w", err)
	}

	newRequest := &Request{
		Type: requestType,
		Data: string(reqData),
	}

	// the pending check and the insert must not interleave with another caller
	err = getReqDB().Transaction(func(tx *gorm.DB) error {
		pending, lookupErr := pendingIDs(tx, vmID)
		if lookupErr != nil {
			return lookupErr
		}

		if len(pending) > 0 {
			return fmt.Errorf("%w: %s", errPendingReqExists, pending[0])
		}

		res := tx.Create(newRequest)
		if res.Error != nil || res.RowsAffected != 1 {
			slog.Error("error creating request", "type", requestType, "vm_id", vmID, "err", res.Error)

			return errRequestCreateFailure
		}

		return nil
	})
	if err != nil {
		return Request{}, err
	}

	return *newRequest, nil
}

// CreateProvisionReq queues a VM create unless one is already pending for the
// same hostname.
func CreateProvisionReq(spec hydrogen.CreateReq) (Request, error) {
	err := spec.Validate()
	if err != nil {
		return Request{}, fmt.Errorf("%w: %w", errInvalidRequest, err)
	}

	reqData, err := json.Marshal(VMCreateData{Spec: spec})
	if err != nil {
		return Request{}, fmt.Errorf("error marshaling request data: %w", err)
	}

	newRequest := &Request{
		Type: VMCREATE,
		Data: string(reqData),
	}

	err = getReqDB().Transaction(func(tx *gorm.DB) error {
		pending, lookupErr := pendingCreateIDs(tx, spec.Hostname)
		if lookupErr != nil {
			return lookupErr
		}

		if len(pending) > 0 {
			return fmt.Errorf("%w: %s", errPendingReqExists, pending[0])
		}

		res := tx.Create(newRequest)
		if res.Error != nil || res.RowsAffected != 1 {
			slog.Error("error creating request", "type", VMCREATE, "hostname", spec.Hostname, "err", res.Error)

			return errRequestCreateFailure
		}

		return nil
	})
	if err != nil {
		return Request{}, err
	}

	return *newRequest, nil
}

func GetByID(id string) (Request, error) {
	var aReq Request

	if id == "" {
		return aReq, errInvalidRequest
	}

	db := getReqDB()

	res := db.Where(&Request{ID: id}).Limit(1).Find(&aReq)
	if res.Error != nil {
		return Request{}, fmt.Errorf("error looking up request: %w", res.Error)
	}

	if res.RowsAffected != 1 {
		return Request{}, errRequestNotFound
	}

	return aReq, nil
}

// GetUnStarted returns the oldest incomplete request that has not been
// started, ignoring the ids in skip.
func GetUnStarted(skip ...string) (Request, error) {
	var aReq Request

	db := getReqDB()

	query := db.Where("started_at IS NULL AND complete = ?", false)
	if len(skip) > 0 {
		query = query.Where("id NOT IN ?", skip)
	}

	res := query.Order("created_at").Limit(1).Find(&aReq)
	if res.Error != nil {
		return Request{}, fmt.Errorf("error looking up unstarted request: %w", res.Error)
	}

	if res.RowsAffected != 1 {
		return Request{}, errRequestNotFound
	}

	return aReq, nil
}

func (req *Request) Start() error {
	if req == nil {
		return errRequestNil
	}

	startedAt := sql.NullTime{Time: time.Now(), Valid: true}
	db := getReqDB()

	res := db.Model(req).Update("started_at", startedAt)
	if res.Error != nil || res.RowsAffected != 1 {
		slog.Error("error marking request started", "id", req.ID, "err", res.Error)

		return errRequestUpdateFailure
	}

	req.StartedAt = startedAt

	return nil
}

func (req *Request) MarkSuccessful() error {
	return req.finish(true)
}

func (req *Request) MarkFailed() error {
	return req.finish(false)
}

func (req *Request) finish(successful bool) error {
	if req == nil {
		return errRequestNil
	}

	db := getReqDB()

	res := db.Model(req).Updates(map[string]any{
		"successful": successful,
		"complete":   true,
	})
	if res.Error != nil || res.RowsAffected != 1 {
		slog.Error("error completing request", "id", req.ID, "err", res.Error)

		return errRequestUpdateFailure
	}

	req.Successful = successful
	req.Complete = true

	return nil
}

// FailAllPending marks every incomplete request failed, used at startup since
// nothing from a previous run is still working on them.
func FailAllPending() int64 {
	db := getReqDB()

	res := db.Model(&Request{}).
		Where("complete = ?", false).
		Updates(map[string]any{"successful": false, "complete": true})
	if res.Error != nil {
		slog.Error("error failing pending requests", "err", res.Error)

		return 0
	}

	return res.RowsAffected
}

func pendingIDs(db *gorm.DB, vmID string) ([]string, error) {
	var incomplete []Request

	var ids []string

	res := db.Where("complete = ?", false).Find(&incomplete)
	if res.Error != nil {
		return nil, fmt.Errorf("error looking up pending requests: %w", res.Error)
	}

	for idx := range incomplete {
		reqVMID, err := incomplete[idx].VMID()
		if err != nil {
			continue
		}

		if reqVMID == vmID {
			ids = append(ids, incomplete[idx].ID)
		}
	}

	return ids, nil
}

func pendingCreateIDs(db *gorm.DB, hostname string) ([]string, error) {
	var incomplete []Request

	var ids []string

	res := db.Where("complete = ? AND type = ?", false, VMCREATE).Find(&incomplete)
	if res.Error != nil {
		return nil, fmt.Errorf("error looking up pending creates: %w", res.Error)
	}

	for idx := range incomplete {
		spec, err := incomplete[idx].CreateSpec()
		if err != nil {
			continue
		}

		if strings.EqualFold(spec.Hostname, hostname) {
			ids = append(ids, incomplete[idx].ID)
		}
	}

	return ids, nil
}

// PendingCreateExists returns the ids of incomplete creates for hostname.
func PendingCreateExists(hostname string) []string {
	ids, err := pendingCreateIDs(getReqDB(), hostname)
	if err != nil {
		slog.Error("error checking pending creates", "hostname", hostname, "err", err)

		return nil
	}

	return ids
}

// PendingReqExists returns the ids of incomplete requests for the VM.
func PendingReqExists(vmID string) []string {
	ids, err := pendingIDs(getReqDB(), vmID)
	if err != nil {
		slog.Error("error checking pending requests", "vm_id", vmID, "err", err)

		return nil
	}

	return ids
}
