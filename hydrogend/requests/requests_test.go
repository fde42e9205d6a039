package requests

import (
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-test/deep"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hydrogen/hydrogen"
	"hydrogen/hydrogend/hydrogendtest"
)

func useSQLite(t *testing.T) {
	t.Helper()

	instance = &singleton{ // prevents parallel testing
		reqDB: hydrogendtest.NewSQLiteDB(t.Name()),
	}
	dbInitialized = true

	DBAutoMigrate()
}

func TestRequest_BeforeCreate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
	}{
		{name: "SuccessIDNotSet", id: ""},
		{name: "SuccessIDJunk", id: "782jgkfd189vjn"},
		{name: "SuccessIDSet", id: "544ab6b7-0df0-41e1-a841-afa5b0972b6c"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			testReq := &Request{ID: testCase.id}

			err := testReq.BeforeCreate(nil)
			if err != nil {
				t.Errorf("BeforeCreate() error = %v", err)
			}

			_, err = uuid.Parse(testReq.ID)
			if err != nil {
				t.Fatalf("error parsing uuid: %s", err.Error())
			}
		})
	}
}

func TestRequest_BeforeCreateNilReceiver(t *testing.T) {
	t.Parallel()

	testReq := (*Request)(nil)

	err := testReq.BeforeCreate(nil)
	if err == nil {
		t.Errorf("BeforeCreate() nil receiver did not return error")
	}
}

//nolint:paralleltest
func TestGetByID(t *testing.T) {
	createUpdateTime := time.Now()
	columns := []string{
		"id", "created_at", "updated_at", "deleted_at", "started_at", "successful", "complete", "type", "data",
	}
	query := "^SELECT \\* FROM `requests` WHERE `requests`.`id` = \\? AND `requests`.`deleted_at` IS NULL LIMIT 1$"

	tests := []struct {
		name        string
		id          string
		mockClosure func(testDB *gorm.DB, mock sqlmock.Sqlmock)
		want        Request
		wantErr     bool
	}{
		{
			name: "Success",
			id:   "4aecbcd1-c39c-48e6-9a45-4a1abe06821f",
			mockClosure: func(testDB *gorm.DB, mock sqlmock.Sqlmock) {
				instance = &singleton{ // prevents parallel testing
					reqDB: testDB,
				}
				mock.ExpectQuery(query).
					WithArgs("4aecbcd1-c39c-48e6-9a45-4a1abe06821f").
					WillReturnRows(
						sqlmock.NewRows(columns).
							AddRow(
								"4aecbcd1-c39c-48e6-9a45-4a1abe06821f",
								createUpdateTime,
								createUpdateTime,
								nil,
								sql.NullTime{
									Time:  createUpdateTime,
									Valid: true,
								},
								1,
								1,
								"VMREBOOT",
								"{\"vm_id\":\"49bd57aa-611e-4cf4-a7b7-2e71470c9aeb\"}",
							),
					)
			},
			want: Request{
				ID:        "4aecbcd1-c39c-48e6-9a45-4a1abe06821f",
				CreatedAt: createUpdateTime,
				UpdatedAt: createUpdateTime,
				DeletedAt: gorm.DeletedAt{},
				StartedAt: sql.NullTime{
					Time:  createUpdateTime,
					Valid: true,
				},
				Successful: true,
				Complete:   true,
				Type:       VMREBOOT,
				Data:       "{\"vm_id\":\"49bd57aa-611e-4cf4-a7b7-2e71470c9aeb\"}",
			},
		},
		{
			name: "Error",
			id:   "cd48e86e-8b1a-4870-b1ec-337d1f1df37d",
			mockClosure: func(testDB *gorm.DB, mock sqlmock.Sqlmock) {
				instance = &singleton{ // prevents parallel testing
					reqDB: testDB,
				}
				mock.ExpectQuery(query).
					WithArgs("cd48e86e-8b1a-4870-b1ec-337d1f1df37d").
					WillReturnError(gorm.ErrInvalidField) // does not matter what error is returned
			},
			want:    Request{},
			wantErr: true,
		},
		{
			name: "NotFound",
			id:   "db945c03-c8f5-4c5d-91ec-da826646d227",
			mockClosure: func(testDB *gorm.DB, mock sqlmock.Sqlmock) {
				instance = &singleton{ // prevents parallel testing
					reqDB: testDB,
				}
				mock.ExpectQuery(query).
					WithArgs("db945c03-c8f5-4c5d-91ec-da826646d227").
					WillReturnRows(sqlmock.NewRows(columns))
			},
			want:    Request{},
			wantErr: true,
		},
		{
			name: "Empty",
			id:   "",
			mockClosure: func(testDB *gorm.DB, _ sqlmock.Sqlmock) {
				instance = &singleton{ // prevents parallel testing
					reqDB: testDB,
				}
			},
			want:    Request{},
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			testDB, mock := hydrogendtest.NewMockDB("requestTest")
			dbInitialized = true
			testCase.mockClosure(testDB, mock)

			got, err := GetByID(testCase.id)
			if (err != nil) != testCase.wantErr {
				t.Errorf("GetByID() error = %v, wantErr %v", err, testCase.wantErr)

				return
			}

			mock.ExpectClose()

			db, err := testDB.DB()
			if err != nil {
				t.Error(err)
			}

			if err = db.Close(); err != nil {
				t.Error(err)
			}

			if err = mock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}

			diff := deep.Equal(got, testCase.want)
			if diff != nil {
				t.Errorf("compare failed: %v", diff)
			}
		})
	}
}

//nolint:paralleltest
func TestCreateVMReq(t *testing.T) {
	const vmID = "f2d857d8-7625-47da-9545-e339f0468856"

	tests := []struct {
		name        string
		requestType reqType
		vmID        string
		wantErr     error
	}{
		{name: "Start", requestType: VMSTART, vmID: vmID},
		{name: "Shutdown", requestType: VMSHUTDOWN, vmID: vmID},
		{name: "Stop", requestType: VMSTOP, vmID: vmID},
		{name: "BadType", requestType: "blah", vmID: vmID, wantErr: errInvalidRequest},
		{name: "EmptyVMID", requestType: VMSTART, vmID: "", wantErr: errInvalidRequest},
		{name: "InvalidVMID", requestType: VMSTART, vmID: "somegarbage", wantErr: errInvalidRequest},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			useSQLite(t)

			got, err := CreateVMReq(testCase.requestType, testCase.vmID)
			if testCase.wantErr != nil {
				if !errors.Is(err, testCase.wantErr) {
					t.Errorf("CreateVMReq() error = %v, want %v", err, testCase.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("CreateVMReq() error = %v", err)
			}

			stored, err := GetByID(got.ID)
			if err != nil {
				t.Fatalf("GetByID() error = %v", err)
			}

			if stored.Type != testCase.requestType || stored.Complete || stored.StartedAt.Valid {
				t.Errorf("stored request = %+v", stored)
			}

			gotVMID, err := stored.VMID()
			if err != nil || gotVMID != testCase.vmID {
				t.Errorf("VMID() = %q, %v, want %q", gotVMID, err, testCase.vmID)
			}
		})
	}
}

//nolint:paralleltest
func TestCreateVMReqPending(t *testing.T) {
	useSQLite(t)

	const vmID = "0a8ae4f6-3f0b-4b6a-9e8a-0bb5fd0f0e11"

	first, err := CreateVMReq(VMSTART, vmID)
	if err != nil {
		t.Fatalf("CreateVMReq() error = %v", err)
	}

	_, err = CreateVMReq(VMSTOP, vmID)
	if !errors.Is(err, errPendingReqExists) {
		t.Errorf("CreateVMReq() error = %v, want errPendingReqExists", err)
	}

	// other VMs are unaffected
	_, err = CreateVMReq(VMSTOP, "7c4a1e61-0d4e-4f7f-8d50-3c6a8d1b7a02")
	if err != nil {
		t.Errorf("CreateVMReq() other VM error = %v", err)
	}

	if diff := deep.Equal(PendingReqExists(vmID), []string{first.ID}); diff != nil {
		t.Errorf("compare failed: %v", diff)
	}

	err = first.MarkFailed()
	if err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}

	if pending := PendingReqExists(vmID); len(pending) != 0 {
		t.Errorf("PendingReqExists() = %v after completion", pending)
	}

	_, err = CreateVMReq(VMSTOP, vmID)
	if err != nil {
		t.Errorf("CreateVMReq() after completion error = %v", err)
	}
}

//nolint:paralleltest
func TestCreateVMReqConcurrent(t *testing.T) {
	useSQLite(t)

	const (
		vmID    = "0a8ae4f6-3f0b-4b6a-9e8a-0bb5fd0f0e11"
		callers = 8
	)

	var wg sync.WaitGroup

	errs := make(chan error, callers)

	for range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := CreateVMReq(VMREBOOT, vmID)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	var created int

	for err := range errs {
		if err == nil {
			created++

			continue
		}

		if !errors.Is(err, errPendingReqExists) {
			t.Errorf("CreateVMReq() error = %v, want errPendingReqExists", err)
		}
	}

	if created != 1 {
		t.Errorf("created %d requests for one VM, want 1", created)
	}

	if pending := PendingReqExists(vmID); len(pending) != 1 {
		t.Errorf("PendingReqExists() = %v, want one id", pending)
	}
}

//nolint:paralleltest
func TestRequestLifecycle(t *testing.T) {
	useSQLite(t)

	_, err := GetUnStarted()
	if !errors.Is(err, errRequestNotFound) {
		t.Fatalf("GetUnStarted() error = %v, want errRequestNotFound", err)
	}

	first, err := CreateVMReq(VMREBOOT, "0a8ae4f6-3f0b-4b6a-9e8a-0bb5fd0f0e11")
	if err != nil {
		t.Fatalf("CreateVMReq() error = %v", err)
	}

	next, err := GetUnStarted()
	if err != nil || next.ID != first.ID {
		t.Fatalf("GetUnStarted() = %s, %v, want %s", next.ID, err, first.ID)
	}

	second, err := CreateVMReq(VMRESET, "7c4a1e61-0d4e-4f7f-8d50-3c6a8d1b7a02")
	if err != nil {
		t.Fatalf("CreateVMReq() error = %v", err)
	}

	err = next.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	next, err = GetUnStarted()
	if err != nil || next.ID != second.ID {
		t.Fatalf("GetUnStarted() = %s, %v, want %s", next.ID, err, second.ID)
	}

	err = first.MarkSuccessful()
	if err != nil {
		t.Fatalf("MarkSuccessful() error = %v", err)
	}

	got, err := GetByID(first.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if !got.Complete || !got.Successful || !got.StartedAt.Valid {
		t.Errorf("completed request = %+v", got)
	}

	if cleared := FailAllPending(); cleared != 1 {
		t.Errorf("FailAllPending() = %d, want 1", cleared)
	}

	got, err = GetByID(second.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if !got.Complete || got.Successful {
		t.Errorf("failed request = %+v", got)
	}
}

func TestGetUnStartedSkips(t *testing.T) {
	useSQLite(t)

	first, err := CreateVMReq(VMSTOP, "0a8ae4f6-3f0b-4b6a-9e8a-0bb5fd0f0e11")
	if err != nil {
		t.Fatalf("CreateVMReq() error = %v", err)
	}

	second, err := CreateVMReq(VMSTART, "7c4a1e61-0d4e-4f7f-8d50-3c6a8d1b7a02")
	if err != nil {
		t.Fatalf("CreateVMReq() error = %v", err)
	}

	next, err := GetUnStarted(first.ID)
	if err != nil || next.ID != second.ID {
		t.Fatalf("GetUnStarted(first) = %s, %v, want %s", next.ID, err, second.ID)
	}

	_, err = GetUnStarted(first.ID, second.ID)
	if !errors.Is(err, errRequestNotFound) {
		t.Errorf("GetUnStarted(all) error = %v, want errRequestNotFound", err)
	}

	// a request failed before it started is no longer queued
	err = first.MarkFailed()
	if err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}

	next, err = GetUnStarted()
	if err != nil || next.ID != second.ID {
		t.Fatalf("GetUnStarted() = %s, %v, want %s", next.ID, err, second.ID)
	}
}

func TestActionTypes(t *testing.T) {
	t.Parallel()

	for _, action := range hydrogen.PowerActions {
		aReqType, err := TypeForAction(action)
		if err != nil {
			t.Fatalf("TypeForAction(%s) error = %v", action, err)
		}

		if !validVMReqType(aReqType) {
			t.Errorf("validVMReqType(%s) = false", aReqType)
		}

		aReq := Request{Type: aReqType}

		got, err := aReq.Action()
		if err != nil || got != action {
			t.Errorf("Action() = %s, %v, want %s", got, err, action)
		}
	}

	_, err := TypeForAction("hibernate")
	if !errors.Is(err, errInvalidRequest) {
		t.Errorf("TypeForAction() error = %v, want errInvalidRequest", err)
	}

	if validVMReqType("somegarbage") {
		t.Error("validVMReqType() accepted garbage")
	}

	badReq := Request{Type: "NICCLONE", Data: "not json"}

	_, err = badReq.Action()
	if !errors.Is(err, errInvalidRequest) {
		t.Errorf("Action() error = %v, want errInvalidRequest", err)
	}

	_, err = badReq.VMID()
	if !errors.Is(err, errInvalidRequest) {
		t.Errorf("VMID() error = %v, want errInvalidRequest", err)
	}
}

func exampleCreateSpec() hydrogen.CreateReq {
	return hydrogen.CreateReq{
		Hostname:  "db-01",
		OS:        "debian-12",
		VCPUs:     4,
		MemoryGiB: 8,
		DiskGiB:   40,
		Bridge:    1,
		Gateway:   "2001:db8:1::1/64",
		Address:   "2001:db8:1::21/64",
		SSHKeys:   []string{"ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIE2x ops@example"},
	}
}

//nolint:paralleltest
func TestCreateProvisionReq(t *testing.T) {
	useSQLite(t)

	spec := exampleCreateSpec()

	created, err := CreateProvisionReq(spec)
	if err != nil {
		t.Fatalf("CreateProvisionReq() error = %v", err)
	}

	got, err := GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Type != VMCREATE {
		t.Errorf("Type = %s, want %s", got.Type, VMCREATE)
	}

	gotSpec, err := got.CreateSpec()
	if err != nil {
		t.Fatalf("CreateSpec() error = %v", err)
	}

	if diff := deep.Equal(gotSpec, spec); diff != nil {
		t.Errorf("compare failed: %v", diff)
	}

	// a create has no vm id yet, so it never blocks power requests
	_, err = got.VMID()
	if !errors.Is(err, errInvalidRequest) {
		t.Errorf("VMID() error = %v, want errInvalidRequest", err)
	}

	sameHost := spec
	sameHost.Hostname = "DB-01"

	_, err = CreateProvisionReq(sameHost)
	if !errors.Is(err, errPendingReqExists) {
		t.Errorf("CreateProvisionReq() error = %v, want errPendingReqExists", err)
	}

	other := spec
	other.Hostname = "db-02"
	other.Address = "2001:db8:1::22/64"

	_, err = CreateProvisionReq(other)
	if err != nil {
		t.Errorf("CreateProvisionReq() other host error = %v", err)
	}

	if diff := deep.Equal(PendingCreateExists("db-01"), []string{created.ID}); diff != nil {
		t.Errorf("compare failed: %v", diff)
	}

	err = created.MarkSuccessful()
	if err != nil {
		t.Fatalf("MarkSuccessful() error = %v", err)
	}

	if pending := PendingCreateExists("db-01"); len(pending) != 0 {
		t.Errorf("PendingCreateExists() = %v after completion", pending)
	}
}

//nolint:paralleltest
func TestCreateProvisionReqInvalid(t *testing.T) {
	useSQLite(t)

	spec := exampleCreateSpec()
	spec.DiskGiB = 1

	_, err := CreateProvisionReq(spec)
	if !errors.Is(err, errInvalidRequest) {
		t.Errorf("CreateProvisionReq() error = %v, want errInvalidRequest", err)
	}

	if !errors.Is(err, hydrogen.ErrInvalidCreate) {
		t.Errorf("CreateProvisionReq() error = %v, want hydrogen.ErrInvalidCreate", err)
	}
}

func TestCreateSpecWrongType(t *testing.T) {
	t.Parallel()

	aReq := Request{Type: VMSTART, Data: `{"vm_id":"0a8ae4f6-3f0b-4b6a-9e8a-0bb5fd0f0e11"}`}

	_, err := aReq.CreateSpec()
	if !errors.Is(err, errInvalidRequest) {
		t.Errorf("CreateSpec() error = %v, want errInvalidRequest", err)
	}
}
