package telegrambot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/penyablaugrana/porra-pool/internal/domain/pool"
	"github.com/penyablaugrana/porra-pool/internal/domain/prediction"
	"github.com/penyablaugrana/porra-pool/internal/usecase"
)

const ownTeamName = "Barça"

const helpText = `<b>Comandes de la porra</b>
/nova rival;casa|fora;dd-mm-aaaa hh:mm: obre una porra (admins)
/apostar X-Y: registra o canvia la teva aposta
/apostar: mostra la porra activa
/consultar: porra activa i apostes
/tancar X-Y: tanca la porra amb el resultat final (admins)
/anular: anul·la la porra activa (admins)
/classificacio: classificació general
/ajuda: aquesta ajuda`

var scorePattern = regexp.MustCompile(`^(\d{1,2})\s*-\s*(\d{1,2})$`)

func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message) string {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "nova":
		if !b.isAdmin(msg.From.ID) {
			return "Només els administradors poden obrir una porra."
		}
		return b.handleNova(ctx, args)
	case "apostar":
		return b.handleApostar(ctx, msg.From, args)
	case "consultar":
		return b.handleConsultar(ctx)
	case "tancar":
		if !b.isAdmin(msg.From.ID) {
			return "Només els administradors poden tancar la porra."
		}
		return b.handleTancar(ctx, args)
	case "anular":
		if !b.isAdmin(msg.From.ID) {
			return "Només els administradors poden anul·lar la porra."
		}
		return b.handleAnular(ctx)
	case "classificacio":
		return b.handleClassificacio(ctx)
	case "ajuda", "start", "help":
		return helpText
	default:
		return ""
	}
}

func (b *Bot) handleNova(ctx context.Context, args string) string {
	parts := strings.Split(args, ";")
	if len(parts) != 3 {
		return "Format: /nova rival;casa|fora;dd-mm-aaaa hh:mm"
	}

	opponent := strings.TrimSpace(parts[0])
	venue := strings.ToLower(strings.TrimSpace(parts[1]))
	kickoff := strings.TrimSpace(parts[2])

	var homeMatch bool
	switch venue {
	case "casa":
		homeMatch = true
	case "fora":
		homeMatch = false
	default:
		return "El segon camp ha de ser casa o fora."
	}

	opened, err := b.pools.OpenPool(ctx, opponent, kickoff, homeMatch)
	if err != nil {
		return b.errorText(ctx, err)
	}

	return fmt.Sprintf("<b>Porra oberta</b>\n%s\nInici: %s\nFes /apostar X-Y per participar-hi.",
		fixtureLine(opened), b.kickoffText(opened))
}

func (b *Bot) handleApostar(ctx context.Context, from *tgbotapi.User, args string) string {
	if args == "" {
		return b.handleConsultar(ctx)
	}

	home, away, ok := parseScore(args)
	if !ok {
		return "Format: /apostar X-Y (per exemple /apostar 2-1)"
	}

	bet, err := b.predictions.RecordPrediction(ctx, externalIdentity(from), displayName(from), home, away)
	if err != nil {
		return b.errorText(ctx, err)
	}

	return fmt.Sprintf("Aposta registrada: %d-%d. Pots canviar-la fins a l'inici del partit.", bet.HomeGoals, bet.AwayGoals)
}

func (b *Bot) handleConsultar(ctx context.Context) string {
	active, entries, err := b.pools.ActivePoolSnapshot(ctx)
	if err != nil {
		return b.errorText(ctx, err)
	}

	var sb strings.Builder
	sb.WriteString("<b>Porra activa</b>\n")
	sb.WriteString(fixtureLine(active))
	sb.WriteString("\nInici: ")
	sb.WriteString(b.kickoffText(active))
	sb.WriteString("\n")
	sb.WriteString(entriesText(entries))
	return sb.String()
}

func (b *Bot) handleTancar(ctx context.Context, args string) string {
	home, away, ok := parseScore(args)
	if !ok {
		return "Format: /tancar X-Y (resultat final del partit)"
	}

	active, exists, err := b.pools.ActivePool(ctx)
	if err != nil {
		return b.errorText(ctx, err)
	}
	if !exists {
		return "No hi ha cap porra activa."
	}

	report, err := b.settlements.Settle(ctx, active.ID, home, away)
	if err != nil {
		return b.errorText(ctx, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Porra tancada: %s %d-%d</b>\n", fixtureLine(active), home, away)
	if len(report) == 0 {
		sb.WriteString("No hi havia cap aposta registrada.")
		return sb.String()
	}
	for i, row := range report {
		fmt.Fprintf(&sb, "%d. %s (%d-%d): %d punts\n", i+1, html.EscapeString(row.DisplayName), row.HomeGoals, row.AwayGoals, row.PointsAwarded)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) handleAnular(ctx context.Context) string {
	active, exists, err := b.pools.ActivePool(ctx)
	if err != nil {
		return b.errorText(ctx, err)
	}
	if !exists {
		return "No hi ha cap porra activa."
	}

	if err := b.pools.CancelPool(ctx, active.ID); err != nil {
		return b.errorText(ctx, err)
	}
	return fmt.Sprintf("Porra anul·lada: %s. Les apostes s'han descartat.", fixtureLine(active))
}

func (b *Bot) handleClassificacio(ctx context.Context) string {
	standings, err := b.leaderboard.Leaderboard(ctx)
	if err != nil {
		return b.errorText(ctx, err)
	}
	if len(standings) == 0 {
		return "Encara no hi ha cap participant amb punts."
	}

	var sb strings.Builder
	sb.WriteString("<b>Classificació</b>\n")
	for i, s := range standings {
		fmt.Fprintf(&sb, "%d. %s: %d punts\n", i+1, html.EscapeString(s.DisplayName), s.TotalPoints)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) errorText(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return "Format incorrecte. Fes /ajuda per veure les comandes."
	case errors.Is(err, usecase.ErrActivePoolExists):
		return "Ja hi ha una porra activa. Tanca-la o anul·la-la abans d'obrir-ne una altra."
	case errors.Is(err, usecase.ErrDuplicateFixture):
		return "Ja s'ha fet una porra per aquest partit."
	case errors.Is(err, usecase.ErrNotFound):
		return "No hi ha cap porra activa."
	case errors.Is(err, usecase.ErrDeadlinePassed):
		return "El partit ja ha començat, ja no s'accepten apostes."
	case errors.Is(err, usecase.ErrPoolSettled):
		return "Aquesta porra ja està tancada."
	case errors.Is(err, usecase.ErrStoreUnavailable):
		return "La base de dades no respon. Torna-ho a provar d'aquí una estona."
	default:
		b.logger.ErrorContext(ctx, "telegram command failed", "error", err)
		return "Hi ha hagut un error. Torna-ho a provar més tard."
	}
}

func (b *Bot) kickoffText(p pool.Pool) string {
	return p.ScheduledAt.In(b.loc).Format(pool.KickoffLayout)
}

func fixtureLine(p pool.Pool) string {
	opponent := html.EscapeString(p.OpponentName)
	if p.HomeMatch {
		return ownTeamName + " - " + opponent
	}
	return opponent + " - " + ownTeamName
}

func entriesText(entries []prediction.Entry) string {
	if len(entries) == 0 {
		return "Encara no hi ha cap aposta."
	}

	var sb strings.Builder
	sb.WriteString("Apostes:\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "• %s: %d-%d\n", html.EscapeString(e.DisplayName), e.HomeGoals, e.AwayGoals)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func parseScore(s string) (int, int, bool) {
	m := scorePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false
	}
	home, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	away, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return home, away, true
}

func externalIdentity(u *tgbotapi.User) string {
	return fmt.Sprintf("tg:%d", u.ID)
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return externalIdentity(u)
	}
	return name
}
