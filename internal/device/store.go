package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/jackc/pgx/v5"

	"github.com/s2eweb/s2eweb/internal/database"
)

// Slot names one of the two stored parameter sets: the running ("working")
// set and the set a module boots with ("default").
type Slot string

const (
	SlotWorking Slot = "working"
	SlotDefault Slot = "default"
)

// Change is one accepted form submission, kept for the audit log.
type Change struct {
	Page           string
	Port           *int
	RemoteAddr     string
	Country        string
	SavedAsDefault bool
}

type Store struct {
	db database.DBTX
}

func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// Load returns the parameters stored in slot. Anything never stored reads as
// the factory value.
func (s *Store) Load(ctx context.Context, slot Slot) (Parameters, error) {
	p := Factory()

	var (
		name, ip, gateway, mask string
		upnpPort                int64
		static                  bool
	)
	err := s.db.QueryRow(ctx,
		`SELECT module_name, location_url_port, static_ip, ip_addr, gateway, subnet_mask
		 FROM module_settings WHERE slot = $1`,
		string(slot),
	).Scan(&name, &upnpPort, &static, &ip, &gateway, &mask)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		slog.Debug("device: no module settings stored, using factory", "slot", slot)
	case err != nil:
		return Parameters{}, fmt.Errorf("load module settings: %w", err)
	default:
		p.ModuleName = name
		p.LocationURLPort = uint16(upnpPort)
		p.StaticIP = static
		p.IPAddr = parseAddr(ip)
		p.Gateway = parseAddr(gateway)
		p.SubnetMask = parseAddr(mask)
	}

	rows, err := s.db.Query(ctx,
		`SELECT port, baud_rate, data_size, parity, stop_bits, flow_control,
		        telnet_timeout, local_port, remote_port, remote_ip, telnet_mode, protocol
		 FROM port_settings WHERE slot = $1 ORDER BY port`,
		string(slot),
	)
	if err != nil {
		return Parameters{}, fmt.Errorf("load port settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			port, baud, dataSize, parity, stopBits, flow int64
			timeout, localPort, remotePort, mode, proto  int64
			remoteIP                                     string
		)
		if err := rows.Scan(&port, &baud, &dataSize, &parity, &stopBits, &flow,
			&timeout, &localPort, &remotePort, &remoteIP, &mode, &proto); err != nil {
			return Parameters{}, fmt.Errorf("scan port settings: %w", err)
		}
		if port < 0 || port >= MaxPorts {
			slog.Warn("device: ignoring settings for unknown port", "port", port)
			continue
		}
		p.Ports[port] = PortParameters{
			BaudRate:      uint32(baud),
			DataSize:      uint8(dataSize),
			Parity:        Parity(parity),
			StopBits:      uint8(stopBits),
			FlowControl:   FlowControl(flow),
			TelnetTimeout: uint32(timeout),
			LocalPort:     uint16(localPort),
			RemotePort:    uint16(remotePort),
			RemoteIP:      parseAddr(remoteIP),
			Mode:          TelnetMode(mode),
			Protocol:      Protocol(proto),
		}
	}
	if err := rows.Err(); err != nil {
		return Parameters{}, fmt.Errorf("iterate port settings: %w", err)
	}
	return p, nil
}

// SavePort stores one port in the working slot and, when asDefault is set,
// in the default slot too.
func (s *Store) SavePort(ctx context.Context, port int, p PortParameters, asDefault bool) error {
	if port < 0 || port >= MaxPorts {
		return fmt.Errorf("save port %d: %w", port, ErrParam)
	}
	slots := []Slot{SlotWorking}
	if asDefault {
		slots = append(slots, SlotDefault)
	}
	for _, slot := range slots {
		if err := s.upsertPort(ctx, slot, port, p); err != nil {
			return err
		}
	}
	return nil
}

// SaveModule stores the module-wide settings in both slots; module name, UPnP
// port and addressing always survive a restart.
func (s *Store) SaveModule(ctx context.Context, p Parameters) error {
	for _, slot := range []Slot{SlotWorking, SlotDefault} {
		if err := s.upsertModule(ctx, slot, p); err != nil {
			return err
		}
	}
	return nil
}

// RestoreFactory overwrites both slots with the factory parameters and
// returns them.
func (s *Store) RestoreFactory(ctx context.Context) (Parameters, error) {
	p := Factory()
	for _, slot := range []Slot{SlotWorking, SlotDefault} {
		if err := s.upsertModule(ctx, slot, p); err != nil {
			return Parameters{}, err
		}
		for i, port := range p.Ports {
			if err := s.upsertPort(ctx, slot, i, port); err != nil {
				return Parameters{}, err
			}
		}
	}
	return p, nil
}

func (s *Store) RecordChange(ctx context.Context, c Change) error {
	if _, err := s.db.Exec(ctx,
		`INSERT INTO config_changes (page, port, remote_addr, country, saved_as_default)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.Page, c.Port, c.RemoteAddr, c.Country, c.SavedAsDefault,
	); err != nil {
		return fmt.Errorf("record config change: %w", err)
	}
	return nil
}

func (s *Store) upsertModule(ctx context.Context, slot Slot, p Parameters) error {
	if _, err := s.db.Exec(ctx,
		`INSERT INTO module_settings (slot, module_name, location_url_port, static_ip, ip_addr, gateway, subnet_mask)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (slot) DO UPDATE SET
		   module_name = EXCLUDED.module_name,
		   location_url_port = EXCLUDED.location_url_port,
		   static_ip = EXCLUDED.static_ip,
		   ip_addr = EXCLUDED.ip_addr,
		   gateway = EXCLUDED.gateway,
		   subnet_mask = EXCLUDED.subnet_mask,
		   updated_at = now()`,
		string(slot), p.ModuleName, int64(p.LocationURLPort), p.StaticIP,
		p.IPAddr.String(), p.Gateway.String(), p.SubnetMask.String(),
	); err != nil {
		return fmt.Errorf("save module settings (%s): %w", slot, err)
	}
	return nil
}

func (s *Store) upsertPort(ctx context.Context, slot Slot, port int, p PortParameters) error {
	if _, err := s.db.Exec(ctx,
		`INSERT INTO port_settings (slot, port, baud_rate, data_size, parity, stop_bits, flow_control,
		                            telnet_timeout, local_port, remote_port, remote_ip, telnet_mode, protocol)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (slot, port) DO UPDATE SET
		   baud_rate = EXCLUDED.baud_rate,
		   data_size = EXCLUDED.data_size,
		   parity = EXCLUDED.parity,
		   stop_bits = EXCLUDED.stop_bits,
		   flow_control = EXCLUDED.flow_control,
		   telnet_timeout = EXCLUDED.telnet_timeout,
		   local_port = EXCLUDED.local_port,
		   remote_port = EXCLUDED.remote_port,
		   remote_ip = EXCLUDED.remote_ip,
		   telnet_mode = EXCLUDED.telnet_mode,
		   protocol = EXCLUDED.protocol,
		   updated_at = now()`,
		string(slot), port, int64(p.BaudRate), int64(p.DataSize), int64(p.Parity), int64(p.StopBits),
		int64(p.FlowControl), int64(p.TelnetTimeout), int64(p.LocalPort), int64(p.RemotePort),
		p.RemoteIP.String(), int64(p.Mode), int64(p.Protocol),
	); err != nil {
		return fmt.Errorf("save port %d settings (%s): %w", port, slot, err)
	}
	return nil
}

func parseAddr(s string) netip.Addr {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return zeroAddr
	}
	return addr
}
