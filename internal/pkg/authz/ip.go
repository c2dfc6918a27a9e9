package authz

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Settings address of the admin IP allow-list.
const (
	IPSettingGroup = "Security"
	IPSettingName  = "AdminAllowedIPs"
)

// IPStage runs first. Local requests always pass; everything else must
// match the admin allow-list kept in the settings cache. The check is a
// pure function of the remote address and the list — the settings read is
// its only external touch.
type IPStage struct {
	Settings SettingsReader
}

func (s *IPStage) Check(c *fiber.Ctx) *Decision {
	remote := c.IP()
	if isLocalRequest(c, remote) {
		return nil
	}

	list, err := s.Settings.GetValue(IPSettingGroup, IPSettingName)
	if err != nil {
		d := Fatal(err)
		return &d
	}

	for _, allowed := range SplitAllowList(list) {
		if strings.EqualFold(allowed, remote) {
			return nil
		}
	}

	d := Fatal(ErrIPNotAllowed)
	return &d
}

// SplitAllowList splits a configured allow-list on ';' and ',' and trims
// each entry. Empty entries are dropped.
func SplitAllowList(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ';' || r == ','
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func isLocalRequest(c *fiber.Ctx, remote string) bool {
	ip := net.ParseIP(remote)
	if ip != nil && ip.IsLoopback() {
		return true
	}
	if local := c.Context().LocalIP(); local != nil && remote == local.String() {
		return true
	}
	return false
}
