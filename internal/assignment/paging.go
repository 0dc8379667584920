package assignment

import (
	"context"
	"errors"

	"github.com/inletworks/inlet-core/internal/device"
)

const (
	// DefaultPageSize is used when the caller does not ask for a size.
	DefaultPageSize = 20

	// MaxPageSize caps how many devices one page can carry.
	MaxPageSize = 100
)

// DevicePage is one page of a pipeline's device membership, in attach
// order. Page numbers are 1-based; a request past the end is clamped to
// the last page rather than rejected, so a client paging while devices
// are detached never gets an error for a page that just vanished.
type DevicePage struct {
	Items      []device.Device `json:"items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalItems int             `json:"total_items"`
	TotalPages int             `json:"total_pages"`
}

// ListPipelineDevices returns one page of the devices attached to a
// pipeline. Membership ids that no longer resolve to a device are
// skipped and logged rather than failing the listing.
func (c *Coordinator) ListPipelineDevices(ctx context.Context, pipelineID string, page, pageSize int) (*DevicePage, error) {
	unlock := c.pipelineLocks.lock(pipelineID)
	defer unlock()

	p, err := c.pipelines.Get(ctx, pipelineID)
	if err != nil {
		return nil, err
	}

	devices := make([]device.Device, 0, len(p.DeviceIDs))
	for _, id := range p.DeviceIDs {
		d, err := c.devices.Get(ctx, id)
		if err != nil {
			if errors.Is(err, device.ErrDeviceNotFound) {
				c.logger.Warn("membership references missing device", "pipeline", pipelineID, "device", id)
				continue
			}
			return nil, err
		}
		devices = append(devices, *d)
	}

	return paginate(devices, page, pageSize), nil
}

// paginate slices devices into the requested page, clamping both the
// size and the page number into range.
func paginate(devices []device.Device, page, pageSize int) *DevicePage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total := len(devices)
	totalPages := 1
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &DevicePage{
		Items:      devices[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
