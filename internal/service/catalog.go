package service

import (
	"strings"

	"github.com/huoyun-next/internal/constants"
)

// VehicleCatalog 车型目录，下单与接单时校验车型/细分是否合法。
// 细分列表为空表示该车型不限制细分。
type VehicleCatalog struct {
	subtypes map[string][]string
}

// NewVehicleCatalog 按给定目录创建
func NewVehicleCatalog(subtypes map[string][]string) *VehicleCatalog {
	normalized := make(map[string][]string, len(subtypes))
	for vehicleType, list := range subtypes {
		key := strings.ToLower(strings.TrimSpace(vehicleType))
		if key == "" {
			continue
		}
		normalized[key] = append([]string{}, list...)
	}
	return &VehicleCatalog{subtypes: normalized}
}

// DefaultVehicleCatalog 内置车型目录
func DefaultVehicleCatalog() *VehicleCatalog {
	return NewVehicleCatalog(map[string][]string{
		constants.VehicleTypeTipper:    {"14t", "18t", "24t"},
		constants.VehicleTypeContainer: {"20ft", "22ft", "32ft"},
		constants.VehicleTypeTrailer:   {"flatbed", "lowbed", "semi"},
		constants.VehicleTypeTanker:    {},
		constants.VehicleTypeOpenBody:  {"6w", "10w", "12w"},
	})
}

// HasType 车型是否在目录内
func (c *VehicleCatalog) HasType(vehicleType string) bool {
	if c == nil {
		return false
	}
	_, ok := c.subtypes[strings.ToLower(strings.TrimSpace(vehicleType))]
	return ok
}

// Valid 车型与细分组合是否合法
func (c *VehicleCatalog) Valid(vehicleType, vehicleSubtype string) bool {
	if c == nil {
		return false
	}
	list, ok := c.subtypes[strings.ToLower(strings.TrimSpace(vehicleType))]
	if !ok {
		return false
	}
	subtype := strings.ToLower(strings.TrimSpace(vehicleSubtype))
	if subtype == "" || len(list) == 0 {
		return true
	}
	for _, allowed := range list {
		if strings.EqualFold(allowed, subtype) {
			return true
		}
	}
	return false
}

// Types 返回目录内全部车型
func (c *VehicleCatalog) Types() []string {
	if c == nil {
		return nil
	}
	types := make([]string, 0, len(c.subtypes))
	for vehicleType := range c.subtypes {
		types = append(types, vehicleType)
	}
	return types
}
