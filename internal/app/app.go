package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/paularlott/cli"

	"github.com/PAPAMICA/wallix-ssh/internal/bastion"
	"github.com/PAPAMICA/wallix-ssh/internal/cache"
	"github.com/PAPAMICA/wallix-ssh/internal/config"
	"github.com/PAPAMICA/wallix-ssh/internal/connect"
	"github.com/PAPAMICA/wallix-ssh/internal/history"
	"github.com/PAPAMICA/wallix-ssh/internal/log"
	"github.com/PAPAMICA/wallix-ssh/internal/model"
	"github.com/PAPAMICA/wallix-ssh/internal/search"
	"github.com/PAPAMICA/wallix-ssh/internal/ui"
)

// ErrAuthentication signals a failed bastion login; the process exits 1.
var ErrAuthentication = errors.New("authentication failed")

// App wires the components together for one invocation. Strictly
// sequential: one network round trip at a time, one subprocess at a time.
type App struct {
	cfg     *config.Config
	client  *bastion.Client
	cache   *cache.Store
	history *history.Store
	conn    *connect.Connector
	ui      *ui.UI
	authed  bool
}

func New(cfg *config.Config) *App {
	hist := history.New(cfg.HistoryFile)
	return &App{
		cfg:     cfg,
		client:  bastion.NewClient(cfg),
		cache:   cache.New(cfg.CacheFile),
		history: hist,
		conn:    connect.New(cfg, hist),
		ui:      ui.New(os.Stdin, os.Stdout),
	}
}

// Command builds the CLI surface.
func Command(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:        "wallix-ssh",
		Version:     "1.0.0",
		Usage:       "Wallix connection manager",
		Description: "List, search and connect to devices registered behind the bastion",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Search for a machine by name"},
			&cli.BoolFlag{Name: "list", Aliases: []string{"l"}, Usage: "List all machines"},
			&cli.StringFlag{Name: "filter", Usage: "Filter machines by regular expression"},
			&cli.StringFlag{Name: "services", Usage: "Filter machines by services (e.g. SSH,RDP)"},
			&cli.StringFlag{Name: "tags", Usage: "Filter machines by tags (e.g. env:prod,team:web)"},
			&cli.StringFlag{Name: "connect", Aliases: []string{"c"}, Usage: "Connect directly to a machine"},
			&cli.BoolFlag{Name: "force-refresh", Aliases: []string{"f"}, Usage: "Force cache refresh"},
			&cli.BoolFlag{Name: "interactive", Aliases: []string{"i"}, Usage: "Use the Interactive account for the connection"},
			&cli.StringFlag{Name: "update", Aliases: []string{"u"}, Usage: "Update machine description and tags"},
			&cli.StringFlag{Name: "description", Usage: "New description for the machine (with --update)"},
			&cli.StringFlag{Name: "new-tags", Usage: "New tags in key1:value1,key2:value2 format (with --update)"},
			&cli.BoolFlag{Name: "no-deploy", Aliases: []string{"n"}, Usage: "Standard SSH connection without file deployment"},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "term"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			return New(cfg).run(ctx, options{
				search:       cmd.GetString("search"),
				list:         cmd.GetBool("list"),
				filter:       cmd.GetString("filter"),
				services:     cmd.GetString("services"),
				tags:         cmd.GetString("tags"),
				connect:      cmd.GetString("connect"),
				forceRefresh: cmd.GetBool("force-refresh"),
				interactive:  cmd.GetBool("interactive"),
				update:       cmd.GetString("update"),
				description:  cmd.GetString("description"),
				newTags:      cmd.GetString("new-tags"),
				noDeploy:     cmd.GetBool("no-deploy"),
				term:         cmd.GetStringArg("term"),
			})
		},
	}
}

type options struct {
	search       string
	list         bool
	filter       string
	services     string
	tags         string
	connect      string
	forceRefresh bool
	interactive  bool
	update       string
	description  string
	newTags      string
	noDeploy     bool
	term         string
}

func (o options) hasAction() bool {
	return o.list || o.search != "" || o.connect != "" || o.forceRefresh || o.update != ""
}

func (a *App) run(ctx context.Context, opts options) error {
	// A bare positional argument is a search.
	if opts.term != "" && !opts.hasAction() {
		opts.search = opts.term
	}

	// No action at all: show the connection history and offer a quick
	// reconnect.
	if !opts.hasAction() {
		a.showHistory(ctx)
		return nil
	}

	filters := search.Filters{
		Query:    opts.search,
		Regex:    opts.filter,
		Services: opts.services,
		Tags:     opts.tags,
	}
	if err := filters.Validate(); err != nil {
		return err
	}

	// Authentication is only needed when talking writes or forcing a
	// fetch; plain reads go through the cache.
	if opts.forceRefresh || opts.update != "" {
		if !a.ensureAuthenticated(ctx) {
			return ErrAuthentication
		}
	}

	if opts.update != "" {
		if opts.description == "" && opts.newTags == "" {
			return errors.New("at least one of --description or --new-tags must be specified with --update")
		}
		a.updateDevice(ctx, opts.update, opts.description, opts.newTags)
		return nil
	}

	if opts.forceRefresh {
		devices := a.devices(ctx, true)
		switch {
		case opts.search != "":
			return a.searchAndConnect(ctx, filters, opts.interactive, opts.noDeploy)
		case opts.list:
			a.ui.Title("Available machines list")
			a.ui.DeviceTable(devices)
		}
		return nil
	}

	switch {
	case opts.list:
		// The positional/search term does not narrow an explicit list.
		listFilters := filters
		listFilters.Query = ""
		results, err := listFilters.Apply(a.devices(ctx, false))
		if err != nil {
			return err
		}
		a.ui.Title("Available machines list")
		a.ui.DeviceTable(results)
		return nil
	case opts.connect != "":
		return a.connectByName(ctx, opts.connect, opts.interactive, opts.noDeploy)
	default:
		return a.searchAndConnect(ctx, filters, opts.interactive, opts.noDeploy)
	}
}

// devices returns the working device list: the cache unless a refresh is
// forced or the cache is unusable, otherwise a fresh fetch which also
// rewrites the cache and announces newly-seen machines.
func (a *App) devices(ctx context.Context, force bool) []model.Device {
	if cached, ok := a.cache.Load(force); ok {
		return cached
	}
	fetched, ok := a.client.FetchAll(ctx)
	if !ok {
		return nil
	}
	a.ui.NewDevices(a.cache.Save(fetched))
	return fetched
}

// resolveWithRefresh runs the lookup against the current list; when it
// comes back empty it offers a forced refresh (accepted on empty input)
// and retries the same lookup exactly once against fresh data. There is no
// further retry.
func (a *App) resolveWithRefresh(ctx context.Context, lookup func([]model.Device) []model.Device, notFound, notFoundAfterRefresh string) ([]model.Device, error) {
	results := lookup(a.devices(ctx, false))
	if len(results) > 0 {
		return results, nil
	}

	log.Error(notFound)
	if !a.ui.Confirm("Do you want to force cache refresh and try again?") {
		return nil, nil
	}
	if !a.ensureAuthenticated(ctx) {
		return nil, ErrAuthentication
	}

	results = lookup(a.devices(ctx, true))
	if len(results) == 0 {
		log.Error(notFoundAfterRefresh)
	}
	return results, nil
}

func (a *App) searchAndConnect(ctx context.Context, filters search.Filters, interactive, noDeploy bool) error {
	lookup := func(devices []model.Device) []model.Device {
		results, _ := filters.Apply(devices) // regex validated up front
		return results
	}
	results, err := a.resolveWithRefresh(ctx, lookup, "No devices found", "No devices found after refresh")
	if err != nil || len(results) == 0 {
		return err
	}

	a.ui.Title("Search results")
	if len(results) == 1 {
		a.ui.DeviceTable(results)
		if a.ui.ConfirmConnect() {
			a.conn.Connect(results[0], interactive, noDeploy)
		}
		return nil
	}

	a.ui.DeviceTableIndexed(results)
	if index, ok := a.ui.SelectIndex(len(results)); ok {
		a.conn.Connect(results[index], interactive, noDeploy)
	}
	return nil
}

func (a *App) connectByName(ctx context.Context, name string, interactive, noDeploy bool) error {
	lookup := func(devices []model.Device) []model.Device {
		for _, d := range devices {
			if d.Name == name {
				return []model.Device{d}
			}
		}
		return nil
	}
	results, err := a.resolveWithRefresh(ctx, lookup,
		fmt.Sprintf("Machine '%s' not found", name), "Machine not found after refresh")
	if err != nil || len(results) == 0 {
		return err
	}
	a.conn.Connect(results[0], interactive, noDeploy)
	return nil
}

func (a *App) showHistory(ctx context.Context) {
	entries := a.history.List()
	if len(entries) == 0 {
		log.Info("No connection history available")
		return
	}

	a.ui.Title("Recent connections")
	a.ui.HistoryTable(entries)

	for {
		index, ok := a.ui.SelectIndex(len(entries))
		if !ok {
			return
		}
		device, found := findByName(a.devices(ctx, false), entries[index].Name)
		if !found {
			log.Error("Machine not found in current list")
			continue
		}
		a.conn.Connect(device, false, false)
		return
	}
}

func (a *App) updateDevice(ctx context.Context, name, description, newTags string) {
	device, found := findByName(a.devices(ctx, false), name)
	if !found {
		log.Error("Device not found", "device", name)
		return
	}

	var desc *string
	if description != "" {
		desc = &description
	}
	var tags []model.Tag
	if newTags != "" {
		tags = model.ParseTagList(newTags)
	}

	if a.client.Update(ctx, device, desc, tags) {
		// Refresh so subsequent reads see the new metadata.
		a.devices(ctx, true)
	}
}

// ensureAuthenticated logs in once per invocation, prompting for the
// password when the settings file leaves it empty.
func (a *App) ensureAuthenticated(ctx context.Context) bool {
	if a.authed {
		return true
	}
	if !a.client.HasPassword() {
		password, err := a.ui.Password("Wallix password: ")
		if err != nil {
			return false
		}
		a.client.SetPassword(password)
	}
	a.authed = a.client.Authenticate(ctx)
	return a.authed
}

func findByName(devices []model.Device, name string) (model.Device, bool) {
	for _, d := range devices {
		if d.Name == name {
			return d, true
		}
	}
	return model.Device{}, false
}
