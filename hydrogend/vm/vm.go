package vm

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"hydrogen/hydrogen"
)

// VM is the stored form of hydrogen.VM, keyed by the VM's UUID.
type VM struct {
	ID        string `gorm:"primaryKey;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Hostname  string `gorm:"column:hostname;not null;uniqueIndex"`
	OS        string `gorm:"column:os"`
	IPv4      string `gorm:"column:ipv4"`
	IPv6      string `gorm:"column:ipv6"`
	Host      string `gorm:"column:host"`
	Online    bool   `gorm:"column:online;default:False;check:online IN (0,1)"`
}

type ListType struct {
	Mu     sync.RWMutex
	VMList map[string]*VM
}

var List = &ListType{
	VMList: make(map[string]*VM),
}

func FromWire(aVM hydrogen.VM) VM {
	return VM{
		ID:       aVM.UUID,
		Hostname: aVM.Hostname,
		OS:       aVM.OS,
		IPv4:     aVM.IPv4,
		IPv6:     aVM.IPv6,
		Host:     aVM.Host,
		Online:   aVM.Online,
	}
}

func (v VM) ToWire() hydrogen.VM {
	return hydrogen.VM{
		Hostname: v.Hostname,
		OS:       v.OS,
		IPv4:     v.IPv4,
		IPv6:     v.IPv6,
		Host:     v.Host,
		UUID:     v.ID,
		Online:   v.Online,
	}
}

func (v VM) Entry() hydrogen.VMEntry {
	return hydrogen.VMEntry{
		VM:       v.ToWire(),
		LastSeen: v.UpdatedAt,
	}
}

func (v VM) String() string {
	return fmt.Sprintf("hostname: %s id: %s", v.Hostname, v.ID)
}

// InitList loads every stored VM into List.
func InitList() error {
	vms, err := GetAllDB()
	if err != nil {
		return err
	}

	List.Mu.Lock()
	defer List.Mu.Unlock()

	for idx := range vms {
		aVM := vms[idx]
		List.VMList[aVM.ID] = &aVM
	}

	updateMetrics()

	return nil
}

func isDupeErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return true
	}

	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func validate(aVM *VM) error {
	if aVM.ID == "" {
		return errVMIDEmpty
	}

	if aVM.Hostname == "" {
		return errVMInvalidName
	}

	return nil
}

func Create(aVM *VM) error {
	err := validate(aVM)
	if err != nil {
		return err
	}

	List.Mu.Lock()
	defer List.Mu.Unlock()

	if _, exists := List.VMList[aVM.ID]; exists {
		return errVMDupe
	}

	db := getVMDB()

	res := db.Create(aVM)
	if res.Error != nil {
		if isDupeErr(res.Error) {
			return errVMDupe
		}

		slog.Error("error creating VM", "id", aVM.ID, "err", res.Error)

		return errVMInternalDB
	}

	stored := *aVM
	List.VMList[aVM.ID] = &stored

	updateMetrics()

	return nil
}

// dropRedefined deletes a VM that holds aVM's hostname under another UUID.
// libvirt names are unique per host, so that domain was undefined and
// redefined since it was stored.
func dropRedefined(aVM VM) error {
	var staleID string

	List.Mu.RLock()
	for id, known := range List.VMList {
		if id != aVM.ID && known.Hostname == aVM.Hostname {
			staleID = id

			break
		}
	}
	List.Mu.RUnlock()

	if staleID == "" {
		return nil
	}

	slog.Info("VM redefined, dropping old entry", "hostname", aVM.Hostname, "old", staleID, "new", aVM.ID)

	err := Delete(staleID)
	if err != nil && !errors.Is(err, errVMNotFound) {
		return err
	}

	return nil
}

// Upsert stores a snapshot reported by the hypervisor, creating the VM the
// first time it is seen.
func Upsert(snapshot hydrogen.VM) (VM, error) {
	aVM := FromWire(snapshot)

	err := validate(&aVM)
	if err != nil {
		return VM{}, err
	}

	err = dropRedefined(aVM)
	if err != nil {
		return VM{}, err
	}

	List.Mu.RLock()
	_, exists := List.VMList[aVM.ID]
	List.Mu.RUnlock()

	if !exists {
		err = Create(&aVM)
		if err == nil {
			slog.Debug("VM added", "vm", aVM.String())

			return aVM, nil
		}

		// lost a race with another writer, fall through to the update
		if !errors.Is(err, errVMDupe) {
			return VM{}, err
		}
	}

	List.Mu.Lock()
	defer List.Mu.Unlock()

	existing, exists := List.VMList[aVM.ID]
	if !exists {
		return VM{}, errVMNotFound
	}

	now := time.Now()
	db := getVMDB()

	res := db.Model(&VM{ID: aVM.ID}).Updates(map[string]any{
		"hostname":   aVM.Hostname,
		"os":         aVM.OS,
		"ipv4":       aVM.IPv4,
		"ipv6":       aVM.IPv6,
		"host":       aVM.Host,
		"online":     aVM.Online,
		"updated_at": now,
	})
	if res.Error != nil {
		slog.Error("error updating VM", "id", aVM.ID, "err", res.Error)

		return VM{}, errVMInternalDB
	}

	existing.Hostname = aVM.Hostname
	existing.OS = aVM.OS
	existing.IPv4 = aVM.IPv4
	existing.IPv6 = aVM.IPv6
	existing.Host = aVM.Host
	existing.Online = aVM.Online
	existing.UpdatedAt = now

	updateMetrics()

	return *existing, nil
}

// SetOnline records a power state change for a known VM.
func SetOnline(id string, online bool) error {
	List.Mu.Lock()
	defer List.Mu.Unlock()

	aVM, exists := List.VMList[id]
	if !exists {
		return errVMNotFound
	}

	now := time.Now()
	db := getVMDB()

	res := db.Model(&VM{ID: id}).Updates(map[string]any{
		"online":     online,
		"updated_at": now,
	})
	if res.Error != nil {
		slog.Error("error saving VM state", "id", id, "err", res.Error)

		return errVMInternalDB
	}

	aVM.Online = online
	aVM.UpdatedAt = now

	updateMetrics()

	return nil
}

// MarkMissingOffline sets every online VM whose id is not in present offline
// and returns how many were changed.
func MarkMissingOffline(present map[string]bool) int {
	var missing []string

	List.Mu.RLock()
	for id, aVM := range List.VMList {
		if aVM.Online && !present[id] {
			missing = append(missing, id)
		}
	}
	List.Mu.RUnlock()

	var changed int

	for _, id := range missing {
		err := SetOnline(id, false)
		if err != nil {
			slog.Error("failed marking missing VM offline", "id", id, "err", err)

			continue
		}
		changed++
	}

	return changed
}

func Delete(id string) error {
	if id == "" {
		return errVMIDEmpty
	}

	List.Mu.Lock()
	defer List.Mu.Unlock()

	if _, exists := List.VMList[id]; !exists {
		return errVMNotFound
	}

	db := getVMDB()

	res := db.Delete(&VM{ID: id})
	if res.RowsAffected != 1 {
		slog.Error("error deleting VM", "id", id, "err", res.Error)

		return errVMDeleteFailed
	}

	delete(List.VMList, id)

	updateMetrics()

	return nil
}

func GetByID(id string) (VM, error) {
	if id == "" {
		return VM{}, errVMIDEmpty
	}

	List.Mu.RLock()
	defer List.Mu.RUnlock()

	aVM, exists := List.VMList[id]
	if !exists {
		return VM{}, errVMNotFound
	}

	return *aVM, nil
}

func GetByHostname(hostname string) (VM, error) {
	List.Mu.RLock()
	defer List.Mu.RUnlock()

	for _, aVM := range List.VMList {
		if aVM.Hostname == hostname {
			return *aVM, nil
		}
	}

	return VM{}, errVMNotFound
}

// GetAll returns copies of every VM sorted by hostname.
func GetAll() []VM {
	List.Mu.RLock()

	vms := make([]VM, 0, len(List.VMList))
	for _, aVM := range List.VMList {
		vms = append(vms, *aVM)
	}

	List.Mu.RUnlock()

	sort.Slice(vms, func(i, j int) bool {
		if vms[i].Hostname == vms[j].Hostname {
			return vms[i].ID < vms[j].ID
		}

		return vms[i].Hostname < vms[j].Hostname
	})

	return vms
}

// Counts returns the number of known and online VMs.
func Counts() (int, int) {
	List.Mu.RLock()
	defer List.Mu.RUnlock()

	var online int

	for _, aVM := range List.VMList {
		if aVM.Online {
			online++
		}
	}

	return len(List.VMList), online
}

func LogAllVMStatus() {
	for _, aVM := range GetAll() {
		slog.Info("vm", "hostname", aVM.Hostname, "id", aVM.ID, "host", aVM.Host, "online", aVM.Online)
	}
}
