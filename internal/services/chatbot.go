package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
	"github.com/gomezmarket/gomezbot-backend/internal/storage"
	"github.com/gomezmarket/gomezbot-backend/internal/utils"
	"github.com/gomezmarket/gomezbot-backend/internal/valery"
)

var (
	changeQuantityPattern = regexp.MustCompile(`(?i)cambiar\s+(?:el\s+)?producto\s+(\d+)\s+a\s+(\d+)`)
	productIndexPattern   = regexp.MustCompile(`(?i)producto\s+(\d+)`)
	fullNamePattern       = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑüÜ\s]+$`)
)

// ChatbotService is the dialogue router: one entry point per inbound message,
// everything else hangs off the session context and the classified intent.
type ChatbotService struct {
	sessions  *SessionService
	intents   *IntentClassifier
	search    *SearchService
	cart      *CartService
	checkout  *CheckoutService
	identity  valery.IdentityLookup
	store     storage.Store
	chatbotID string

	mu    sync.Mutex
	locks map[string]*senderLock

	now func() time.Time
}

// senderLock serializes turns per sender and counts waiters so the entry can
// be evicted once nobody holds it.
type senderLock struct {
	sync.Mutex
	refs int
}

func NewChatbotService(
	sessions *SessionService,
	intents *IntentClassifier,
	search *SearchService,
	cart *CartService,
	checkout *CheckoutService,
	identity valery.IdentityLookup,
	store storage.Store,
	chatbotID string,
) *ChatbotService {
	return &ChatbotService{
		sessions:  sessions,
		intents:   intents,
		search:    search,
		cart:      cart,
		checkout:  checkout,
		identity:  identity,
		store:     store,
		chatbotID: chatbotID,
		locks:     make(map[string]*senderLock),
		now:       time.Now,
	}
}

// lockSender serializes turns per sender. WhatsApp users double-send often
// enough that two concurrent turns on one session would corrupt its context.
func (s *ChatbotService) lockSender(phone string) *senderLock {
	s.mu.Lock()
	lock, ok := s.locks[phone]
	if !ok {
		lock = &senderLock{}
		s.locks[phone] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.Lock()
	return lock
}

func (s *ChatbotService) unlockSender(phone string, lock *senderLock) {
	lock.Unlock()

	s.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, phone)
	}
	s.mu.Unlock()
}

// ProcessMessage runs one full turn and returns the reply text. A failed
// collaborator rolls the session back to its pre-turn state; the sender gets
// an apology carrying a correlation id that also appears in the server log.
func (s *ChatbotService) ProcessMessage(ctx context.Context, sender, text string) (string, error) {
	phone := utils.NormalizePhone(sender)
	if phone == "" {
		return "", fmt.Errorf("empty sender")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "🤔 No recibí ningún texto. Escríbeme qué necesitas.", nil
	}

	lock := s.lockSender(phone)
	defer s.unlockSender(phone, lock)

	session, created, err := s.sessions.Resolve(phone, s.chatbotID)
	if err != nil {
		return "", err
	}

	snapshot := *session
	snapshot.Metadata = session.Metadata.Clone()

	reply, err := s.dispatch(ctx, session, text, created)
	if err != nil {
		correlationID := uuid.NewString()[:8]
		log.Printf("❌ [%s] Turno fallido para %s en contexto %s: %v", correlationID, phone, snapshot.Context, err)
		*session = snapshot
		reply = replyInternalError(correlationID)
	}

	session.MessageCount++
	session.LastUserMessage = text
	session.LastBotResponse = reply
	if err := s.sessions.Persist(session); err != nil {
		return "", err
	}
	s.saveTranscript(session, text, reply)
	return reply, nil
}

func (s *ChatbotService) saveTranscript(session *models.Session, userText, botText string) {
	now := s.now()
	entries := []*models.ChatMessage{
		{SessionID: session.ID, PhoneNumber: session.PhoneNumber, Sender: "user", Content: userText, Timestamp: now},
		{SessionID: session.ID, PhoneNumber: session.PhoneNumber, Sender: "assistant", Content: botText, Timestamp: now},
	}
	for _, entry := range entries {
		if err := s.store.SaveMessage(entry); err != nil {
			log.Printf("⚠️ No se pudo guardar mensaje de %s: %v", session.PhoneNumber, err)
		}
	}
}

// dispatch decides who consumes the message: first-contact authentication,
// then the context locks, then the classified intent.
func (s *ChatbotService) dispatch(ctx context.Context, session *models.Session, text string, created bool) (string, error) {
	if created || session.Context == models.ContextInitial {
		return s.handleFirstContact(ctx, session, text)
	}

	switch {
	case session.Context == models.ContextNewClient:
		return s.handleNewClient(ctx, session, text)
	case session.Context == models.ContextNewClientRegistration:
		return s.handleRegistration(ctx, session, text)
	case session.Context.InCheckout():
		return s.checkout.Handle(ctx, session, text)
	case (session.Context == models.ContextProductSearch || session.Context == models.ContextOrderStart) && IsProductList(text):
		return s.handleProductList(ctx, session, text)
	}

	verdict := s.intents.Classify(text)
	log.Printf("🧠 %s: intent=%s conf=%.2f", session.PhoneNumber, verdict.Intent, verdict.Confidence)

	switch verdict.Intent {
	case IntentGreeting:
		return s.handleGreeting(ctx, session)
	case IntentMenuOption:
		return s.handleMenuOption(ctx, session, verdict.Entities.Option)
	case IntentProductSearch:
		return s.handleSearch(ctx, session, verdict.Entities.SearchTerm)
	case IntentCartAction:
		return s.handleCartAction(ctx, session, text, verdict.Entities.ProductIndex)
	case IntentIdentification:
		return s.handleIdentification(ctx, session, verdict.Entities.Identification)
	case IntentHelp:
		return replyMenu(), nil
	}

	// Unknown but long enough to be a product name: treat it as a search.
	if len([]rune(strings.TrimSpace(text))) > 3 {
		return s.handleSearch(ctx, session, text)
	}
	return "🤔 No entendí tu mensaje.\n\n" + replyMenu(), nil
}

// handleFirstContact tries to recognize the sender by phone before asking
// for a cédula. A first message that already is a cédula goes straight to
// identification instead of being asked for again.
func (s *ChatbotService) handleFirstContact(ctx context.Context, session *models.Session, text string) (string, error) {
	customer, err := s.identity.CustomerByPhone(ctx, session.PhoneNumber)
	if err != nil {
		return "", fmt.Errorf("phone lookup: %w", err)
	}
	if customer == nil {
		session.Context = models.ContextNewClient
		session.IsNewClient = true
		if cedula := strings.ToUpper(utils.AlphaNumeric(text)); cedulaPattern.MatchString(cedula) {
			return s.handleIdentification(ctx, session, cedula)
		}
		return replyWelcomeNew(s.now()), nil
	}
	s.authenticate(session, customer)
	return s.welcomeBack(session)
}

func (s *ChatbotService) authenticate(session *models.Session, customer *models.Customer) {
	session.IsAuthenticated = true
	session.IsNewClient = false
	session.ClientID = customer.ClientCode
	session.ClientName = customer.Name
	session.IdentificationNumber = customer.Rif
	session.Context = models.ContextMenu
	session.Metadata.Client = &models.ClientInfo{
		HasCredit:    customer.HasCredit,
		CreditDays:   customer.CreditDays,
		Balance:      customer.Balance,
		LastPurchase: customer.LastPurchase,
	}
	log.Printf("🔐 %s autenticado como %s (%s)", session.PhoneNumber, customer.Name, customer.ClientCode)
}

// welcomeBack builds the returning-customer greeting with saved-cart and
// recent-search hints.
func (s *ChatbotService) welcomeBack(session *models.Session) (string, error) {
	totals, err := s.cart.Totals(session.PhoneNumber)
	if err != nil {
		return "", err
	}
	lastSearch := ""
	searches, err := s.store.GetRecentSearches(session.PhoneNumber, 1)
	if err == nil && len(searches) > 0 && s.now().Sub(searches[0].CreatedAt) <= 7*24*time.Hour {
		lastSearch = searches[0].OriginalSearchTerm
	}
	return replyWelcomeKnown(s.now(), session.ClientName, totals.ItemCount, lastSearch), nil
}

func (s *ChatbotService) handleGreeting(ctx context.Context, session *models.Session) (string, error) {
	if !session.IsAuthenticated {
		return replyWelcomeNew(s.now()), nil
	}
	session.Context = models.ContextMenu
	return s.welcomeBack(session)
}

func (s *ChatbotService) handleMenuOption(ctx context.Context, session *models.Session, option string) (string, error) {
	if !session.IsAuthenticated {
		return replyWelcomeNew(s.now()), nil
	}
	switch option {
	case "1":
		session.Context = models.ContextProductSearch
		return replyAskProduct(), nil
	case "2":
		return s.handleBalance(ctx, session)
	case "3":
		return s.handleInvoices(ctx, session)
	case "4":
		return s.handleOrderStart(ctx, session)
	}
	return "⚠️ Opción no válida.\n\n" + replyMenu(), nil
}

// handleOrderStart opens the ordering flow. With products already in the
// cart it goes straight to payment; otherwise the session enters order_start
// to gather products first.
func (s *ChatbotService) handleOrderStart(ctx context.Context, session *models.Session) (string, error) {
	totals, err := s.cart.Totals(session.PhoneNumber)
	if err != nil {
		return "", err
	}
	if totals.ItemCount > 0 {
		return s.checkout.Start(ctx, session)
	}
	session.Context = models.ContextOrderStart
	return replyOrderStart(), nil
}

func (s *ChatbotService) handleBalance(ctx context.Context, session *models.Session) (string, error) {
	client := session.Metadata.Client
	if client == nil {
		customer, err := s.identity.CustomerByCode(ctx, session.ClientID)
		if err != nil {
			return "", fmt.Errorf("balance lookup: %w", err)
		}
		if customer == nil {
			return "😕 No pude consultar tu cuenta en este momento.", nil
		}
		client = &models.ClientInfo{
			HasCredit:    customer.HasCredit,
			CreditDays:   customer.CreditDays,
			Balance:      customer.Balance,
			LastPurchase: customer.LastPurchase,
		}
		session.Metadata.Client = client
	}
	return replyBalance(client, session.ClientName), nil
}

func (s *ChatbotService) handleInvoices(ctx context.Context, session *models.Session) (string, error) {
	invoices, err := s.identity.Invoices(ctx, session.ClientID)
	if err != nil {
		return "", fmt.Errorf("invoice history: %w", err)
	}
	return replyInvoices(invoices), nil
}

func (s *ChatbotService) handleSearch(ctx context.Context, session *models.Session, term string) (string, error) {
	if !session.IsAuthenticated {
		return replyWelcomeNew(s.now()), nil
	}
	if strings.TrimSpace(term) == "" {
		session.Context = models.ContextProductSearch
		return replyAskProduct(), nil
	}
	session.Context = models.ContextProductSearch
	result, err := s.search.Search(ctx, session, term)
	if err != nil {
		return "", err
	}
	if len(result.Products) == 0 {
		return replyNoResults(result.Term, result.Suggestions), nil
	}
	return replyProducts(result.Products, fmt.Sprintf("🔍 Encontré %d producto(s) para *%s*:", len(result.Products), result.Term)), nil
}

func (s *ChatbotService) handleProductList(ctx context.Context, session *models.Session, text string) (string, error) {
	result, err := s.search.SearchList(ctx, session, text)
	if err != nil {
		return "", err
	}
	return replyListResults(result), nil
}

// handleCartAction dispatches the cart verbs. Order matters: vaciar and
// limpiar mention "carrito" too, so they are checked before the plain view.
func (s *ChatbotService) handleCartAction(ctx context.Context, session *models.Session, text string, index int) (string, error) {
	if !session.IsAuthenticated {
		return replyWelcomeNew(s.now()), nil
	}
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "vaciar") || strings.Contains(lower, "limpiar"):
		if _, err := s.cart.Clear(session.PhoneNumber); err != nil {
			return "", err
		}
		return "🗑️ Carrito vaciado.\n\n" + replyMenu(), nil

	case strings.Contains(lower, "quitar") || strings.Contains(lower, "eliminar"):
		return s.removeByIndex(session, index)

	case changeQuantityPattern.MatchString(lower):
		return s.changeQuantity(session, lower)

	case strings.Contains(lower, "agregar") || productIndexPattern.MatchString(lower):
		return s.addByIndex(ctx, session, index)

	case strings.Contains(lower, "proceder") || strings.Contains(lower, "pagar") ||
		strings.Contains(lower, "finalizar") || strings.Contains(lower, "confirmar"):
		return s.checkout.Start(ctx, session)

	case strings.Contains(lower, "carrito"):
		totals, err := s.cart.Totals(session.PhoneNumber)
		if err != nil {
			return "", err
		}
		return replyCart(totals), nil
	}
	return "🤔 No entendí qué quieres hacer con el carrito.\n\nEscribe *ver carrito* para revisarlo.", nil
}

func (s *ChatbotService) addByIndex(ctx context.Context, session *models.Session, index int) (string, error) {
	if index <= 0 {
		return "⚠️ Indícame cuál producto agregar, por ejemplo: *agregar producto 1*.", nil
	}
	products, err := s.search.LastSearchProducts(ctx, session)
	if err != nil {
		return "", err
	}
	if len(products) == 0 {
		return "🔍 Primero busca un producto para poder agregarlo.", nil
	}
	if index > len(products) {
		return fmt.Sprintf("⚠️ Tu última búsqueda tiene %d producto(s); el número %d no existe.", len(products), index), nil
	}
	product := products[index-1]
	if _, err := s.cart.Add(session, product, 1); err != nil {
		return "", err
	}
	totals, err := s.cart.Totals(session.PhoneNumber)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ *%s* agregado al carrito.\n\n%s", product.Name, replyCart(totals)), nil
}

func (s *ChatbotService) removeByIndex(session *models.Session, index int) (string, error) {
	items, err := s.cart.Items(session.PhoneNumber)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "🛒 Tu carrito está vacío.", nil
	}
	if index <= 0 || index > len(items) {
		return fmt.Sprintf("⚠️ Indica el número de la línea a quitar (1 a %d).", len(items)), nil
	}
	item := items[index-1]
	if err := s.cart.Remove(session.PhoneNumber, item.ProductCode); err != nil {
		return "", err
	}
	totals, err := s.cart.Totals(session.PhoneNumber)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🗑️ *%s* quitado del carrito.\n\n%s", item.ProductName, replyCart(totals)), nil
}

func (s *ChatbotService) changeQuantity(session *models.Session, lower string) (string, error) {
	match := changeQuantityPattern.FindStringSubmatch(lower)
	index, _ := strconv.Atoi(match[1])
	quantity, _ := strconv.Atoi(match[2])

	items, err := s.cart.Items(session.PhoneNumber)
	if err != nil {
		return "", err
	}
	if index <= 0 || index > len(items) {
		return fmt.Sprintf("⚠️ Indica el número de la línea a cambiar (1 a %d).", len(items)), nil
	}
	item := items[index-1]
	updated, err := s.cart.SetQuantity(session.PhoneNumber, item.ProductCode, quantity)
	if err != nil {
		return "", err
	}
	totals, err := s.cart.Totals(session.PhoneNumber)
	if err != nil {
		return "", err
	}
	if updated == nil {
		return fmt.Sprintf("🗑️ *%s* quitado del carrito.\n\n%s", item.ProductName, replyCart(totals)), nil
	}
	return fmt.Sprintf("✏️ *%s* ahora x%d.\n\n%s", item.ProductName, updated.Quantity, replyCart(totals)), nil
}

// handleNewClient expects a cédula from an unrecognized sender.
func (s *ChatbotService) handleNewClient(ctx context.Context, session *models.Session, text string) (string, error) {
	cedula := strings.ToUpper(utils.AlphaNumeric(text))
	if !cedulaPattern.MatchString(cedula) {
		return "⚠️ Necesito tu cédula o RIF para continuar (ejemplo: V12345678).", nil
	}
	return s.handleIdentification(ctx, session, cedula)
}

// handleIdentification resolves a cédula against the customer table; unknown
// cédulas open the registration flow.
func (s *ChatbotService) handleIdentification(ctx context.Context, session *models.Session, cedula string) (string, error) {
	customer, err := s.identity.CustomerByRif(ctx, cedula)
	if err != nil {
		return "", fmt.Errorf("rif lookup: %w", err)
	}
	if customer != nil {
		s.authenticate(session, customer)
		return s.welcomeBack(session)
	}
	session.IdentificationNumber = cedula
	session.Context = models.ContextNewClientRegistration
	return "📝 No encontré esa cédula registrada. Vamos a crearte como cliente.\n\n" +
		"Escribe tu *nombre y apellido* (ejemplo: Juan Pérez).", nil
}

// handleRegistration creates the customer from the provided full name and the
// cédula captured in the previous step.
func (s *ChatbotService) handleRegistration(ctx context.Context, session *models.Session, text string) (string, error) {
	name := strings.TrimSpace(text)
	if !fullNamePattern.MatchString(name) || len(strings.Fields(name)) < 2 {
		return "⚠️ Escribe tu nombre y apellido, solo letras (ejemplo: Juan Pérez).", nil
	}
	customer, err := s.identity.CreateCustomer(ctx, name, session.IdentificationNumber, session.PhoneNumber)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	s.authenticate(session, customer)
	return fmt.Sprintf("🎉 ¡Listo, %s! Ya estás registrado como cliente.\n\n%s", firstName(customer.Name), replyMenu()), nil
}
