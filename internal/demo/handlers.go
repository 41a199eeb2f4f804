package demo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/adapters/console"
	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/guard"
)

// Guild implements the demo guild commands.
type Guild struct {
	roster      *Roster
	guard       *guard.Guard
	online      func() []string
	inviteTTL   time.Duration
	tradeDelay  time.Duration
	maxWaitSecs int
}

// Option configures Guild.
type Option func(*Guild)

// WithGuard sets the guard serializing create and trade.
func WithGuard(g *guard.Guard) Option {
	return func(h *Guild) {
		h.guard = g
	}
}

// WithOnline sets the source of player names offered by completion.
func WithOnline(online func() []string) Option {
	return func(h *Guild) {
		h.online = online
	}
}

// WithInviteTTL sets how long an invitation waits for an answer.
func WithInviteTTL(d time.Duration) Option {
	return func(h *Guild) {
		h.inviteTTL = d
	}
}

// WithTradeDelay sets how long a trade takes to settle.
func WithTradeDelay(d time.Duration) Option {
	return func(h *Guild) {
		h.tradeDelay = d
	}
}

// New creates the guild command handlers over roster.
func New(roster *Roster, opts ...Option) *Guild {
	h := &Guild{
		roster:      roster,
		inviteTTL:   time.Minute,
		tradeDelay:  2 * time.Second,
		maxWaitSecs: 300,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.guard == nil {
		h.guard = guard.New()
	}
	if h.online == nil {
		h.online = func() []string { return nil }
	}
	return h
}

// Bindings exposes the handlers under the names used by tree.yaml.
func (h *Guild) Bindings() *dsl.Bindings {
	return dsl.NewBindings().
		Handler("guild.help", h.Help).
		Handler("guild.create", h.guard.Exclusive(guard.ByCommand, h.Create)).
		Player("guild.invite", h.Invite).
		Player("guild.accept", h.Accept).
		Handler("guild.kick", h.Kick).
		Handler("guild.info", h.Info).
		Handler("guild.info.all", h.InfoAll).
		Handler("guild.trade", h.guard.Rejecting(guard.ByCaller, "You already have a trade in progress.", h.Trade)).
		Player("guild.wait", h.Wait).
		Matcher("operator", command.Is[*console.Operator]()).
		Completer("online", h.completeFrom(h.online)).
		Completer("guilds", h.completeFrom(h.roster.Guilds)).
		Completer("members", h.completeMembers)
}

// Help lists the subcommands the caller may use.
func (h *Guild) Help(ex *command.Executor) error {
	var names []string
	for _, c := range ex.Node().Children() {
		if p := c.Permission(); p != "" && !ex.Caller().HasPermission(p) {
			continue
		}
		names = append(names, c.Name())
	}
	ex.Replyf("Guild commands: %s", strings.Join(names, ", "))
	return nil
}

func (h *Guild) Create(ex *command.Executor) error {
	if err := ex.RequireArgs(1); err != nil {
		return err
	}
	name, _ := ex.Arg(0)
	founder := ex.Caller().Name()
	if !h.roster.Create(name, founder) {
		return domain.Failf("Cannot create %s: the name is taken or you are already in a guild.", name)
	}
	ex.Replyf("Guild %s founded by %s.", name, founder)
	return nil
}

// Invite waits for the invited player to accept. Disconnecting cancels it.
func (h *Guild) Invite(ex *command.Executor) error {
	if err := ex.RequireArgs(1); err != nil {
		return err
	}
	target, _ := ex.Arg(0)
	g, ok := h.roster.GuildOf(ex.Caller().Name())
	if !ok {
		return domain.Fail("You are not in a guild.")
	}
	if _, member := h.roster.GuildOf(target); member {
		return domain.Failf("%s is already in a guild.", target)
	}

	accepted := h.roster.Invite(g, target)
	ex.Replyf("Invited %s to %s. Waiting for an answer...", target, g)

	timer := time.NewTimer(h.inviteTTL)
	defer timer.Stop()
	select {
	case <-accepted:
		ex.Replyf("%s joined %s.", target, g)
		return nil
	case <-timer.C:
		h.roster.Withdraw(g, target)
		return domain.Failf("The invitation to %s expired.", target)
	case <-ex.Context().Done():
		h.roster.Withdraw(g, target)
		return ex.Context().Err()
	}
}

func (h *Guild) Accept(ex *command.Executor) error {
	g, ok := h.roster.Accept(ex.Caller().Name())
	if !ok {
		return domain.Fail("You have no pending invitation.")
	}
	ex.Replyf("Welcome to %s!", g)
	return nil
}

func (h *Guild) Kick(ex *command.Executor) error {
	if err := ex.RequireArgs(1); err != nil {
		return err
	}
	target, _ := ex.Arg(0)
	g, ok := h.roster.GuildOf(ex.Caller().Name())
	if !ok {
		return domain.Fail("You are not in a guild.")
	}
	if tg, ok := h.roster.GuildOf(target); !ok || tg != g {
		return domain.Failf("%s is not in %s.", target, g)
	}
	h.roster.Remove(target)
	ex.Replyf("%s was removed from %s.", target, g)
	return nil
}

// Info shows the members of a guild, the caller's own by default.
func (h *Guild) Info(ex *command.Executor) error {
	name, ok := ex.Arg(0)
	if !ok {
		if name, ok = h.roster.GuildOf(ex.Caller().Name()); !ok {
			return domain.Fail("You are not in a guild.")
		}
	}
	members, ok := h.roster.Members(name)
	if !ok {
		return domain.Failf("No guild named %s.", name)
	}
	ex.Replyf("%s: %s", name, strings.Join(members, ", "))
	return nil
}

// InfoAll gives the operator an overview of every guild.
func (h *Guild) InfoAll(ex *command.Executor) error {
	if ex.NArg() > 0 {
		return h.Info(ex)
	}
	guilds := h.roster.Guilds()
	if len(guilds) == 0 {
		ex.Reply("No guilds yet.")
		return nil
	}
	for _, g := range guilds {
		members, _ := h.roster.Members(g)
		ex.Replyf("%s (%d)", g, len(members))
	}
	return nil
}

func (h *Guild) Trade(ex *command.Executor) error {
	if err := ex.RequireArgs(1); err != nil {
		return err
	}
	target, _ := ex.Arg(0)
	ex.Replyf("Trading with %s...", target)
	if err := sleep(ex.Context(), h.tradeDelay); err != nil {
		return err
	}
	ex.Replyf("Trade with %s complete.", target)
	return nil
}

// Wait sleeps for the given number of seconds. It is the simplest
// long-running command to try cancellation with.
func (h *Guild) Wait(ex *command.Executor) error {
	arg, ok := ex.Arg(0)
	if !ok {
		return ex.Usage()
	}
	secs, err := strconv.Atoi(arg)
	if err != nil || secs < 0 || secs > h.maxWaitSecs {
		return ex.Usage()
	}
	if err := sleep(ex.Context(), time.Duration(secs)*time.Second); err != nil {
		return err
	}
	ex.Reply("Done waiting.")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Guild) completeFrom(source func() []string) command.Completer {
	return func(tc *command.TabContext) []string {
		return filterPrefix(source(), lastArg(tc.Args()))
	}
}

func (h *Guild) completeMembers(tc *command.TabContext) []string {
	g, ok := h.roster.GuildOf(tc.Caller().Name())
	if !ok {
		return []string{}
	}
	members, _ := h.roster.Members(g)
	return filterPrefix(members, lastArg(tc.Args()))
}

func lastArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}

func filterPrefix(candidates []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	out := []string{}
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), prefix) {
			out = append(out, c)
		}
	}
	return out
}
