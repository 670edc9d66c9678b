package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"plog/internal/domain"
	"plog/internal/gateway"
	"plog/internal/session"
)

type app struct {
	client *gateway.Client
	store  *session.Store
	reader *bufio.Reader
	out    io.Writer
}

func newApp(client *gateway.Client, store *session.Store, in io.Reader, out io.Writer) *app {
	return &app{
		client: client,
		store:  store,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// run atiende el menú hasta que el usuario sale o se agota la entrada.
func (a *app) run(ctx context.Context) error {
	unsubscribe := a.store.Subscribe(func(authenticated bool) {
		if authenticated {
			fmt.Fprintln(a.out, "* Sesión iniciada.")
		} else {
			fmt.Fprintln(a.out, "* Sesión cerrada.")
		}
	})
	defer unsubscribe()

	for {
		a.printMenu()
		choice, err := a.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("leer input: %w", err)
		}

		switch choice {
		case "1":
			err = a.register(ctx)
		case "2":
			err = a.login(ctx)
		case "3":
			err = a.listPosts(ctx)
		case "4":
			err = a.showPost(ctx)
		case "5":
			err = a.myPosts(ctx)
		case "6":
			err = a.createPost(ctx)
		case "7":
			err = a.updatePost(ctx)
		case "8":
			err = a.client.Logout(ctx)
		case "0", "salir":
			return nil
		default:
			fmt.Fprintln(a.out, "Opcion invalida.")
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			fmt.Fprintf(a.out, "Error: %s\n", describeError(err))
		}
	}
}

func (a *app) printMenu() {
	status := "anónimo"
	if a.store.Authenticated() {
		status = "sesión activa"
	}
	fmt.Fprintf(a.out, "\n===== Plog [%s] =====\n", status)
	fmt.Fprintln(a.out, "[1] Registrarse")
	fmt.Fprintln(a.out, "[2] Iniciar sesión")
	fmt.Fprintln(a.out, "[3] Ver posts")
	fmt.Fprintln(a.out, "[4] Ver un post")
	fmt.Fprintln(a.out, "[5] Mis posts")
	fmt.Fprintln(a.out, "[6] Crear post")
	fmt.Fprintln(a.out, "[7] Editar post")
	fmt.Fprintln(a.out, "[8] Cerrar sesión")
	fmt.Fprintln(a.out, "[0] Salir")
	fmt.Fprint(a.out, "Selecciona una opcion: ")
}

func (a *app) readLine() (string, error) {
	line, err := a.reader.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	return a.readLine()
}

func (a *app) promptID() (int64, error) {
	raw, err := a.prompt("ID del post")
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// id <= 0 lo rechaza el gateway como validación.
		return 0, nil
	}
	return id, nil
}

func (a *app) register(ctx context.Context) error {
	username, err := a.prompt("Usuario")
	if err != nil {
		return err
	}
	password, err := a.prompt("Contraseña")
	if err != nil {
		return err
	}
	user, err := a.client.Register(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Usuario %s creado (ID: %d). Ahora inicia sesión.\n", user.Username, user.ID)
	return nil
}

func (a *app) login(ctx context.Context) error {
	username, err := a.prompt("Usuario")
	if err != nil {
		return err
	}
	password, err := a.prompt("Contraseña")
	if err != nil {
		return err
	}
	res, err := a.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	a.store.SetToken(res.AccessToken)
	fmt.Fprintf(a.out, "Hola, %s.\n", res.User.Username)
	return nil
}

func (a *app) listPosts(ctx context.Context) error {
	raw, err := a.prompt("Página (desde 1, vacío = 1)")
	if err != nil {
		return err
	}
	page := 1
	if raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
			page = n
		}
	}
	const pageSize = 10
	posts, err := a.client.GetPosts(ctx, gateway.ListOptions{Limit: pageSize, Offset: (page - 1) * pageSize})
	if err != nil {
		return err
	}
	a.printPosts(posts)
	return nil
}

func (a *app) showPost(ctx context.Context) error {
	id, err := a.promptID()
	if err != nil {
		return err
	}
	post, err := a.client.GetPost(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "#%d %s\npor %s, %s\n\n%s\n", post.ID, post.Title, author(post), post.CreatedAt.Format("2006-01-02 15:04"), post.Content)
	return nil
}

func (a *app) myPosts(ctx context.Context) error {
	posts, err := a.client.GetMyPosts(ctx)
	if err != nil {
		return err
	}
	a.printPosts(posts)
	return nil
}

func (a *app) createPost(ctx context.Context) error {
	title, err := a.prompt("Título")
	if err != nil {
		return err
	}
	content, err := a.prompt("Contenido")
	if err != nil {
		return err
	}
	post, err := a.client.CreatePost(ctx, title, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Post creado (ID: %d).\n", post.ID)
	return nil
}

func (a *app) updatePost(ctx context.Context) error {
	id, err := a.promptID()
	if err != nil {
		return err
	}
	title, err := a.prompt("Nuevo título")
	if err != nil {
		return err
	}
	content, err := a.prompt("Nuevo contenido")
	if err != nil {
		return err
	}
	post, err := a.client.UpdatePost(ctx, id, title, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Post %d actualizado.\n", post.ID)
	return nil
}

func (a *app) printPosts(posts []domain.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(a.out, "No hay posts.")
		return
	}
	for _, p := range posts {
		fmt.Fprintf(a.out, "[%d] %s (por %s)\n", p.ID, p.Title, author(p))
	}
}

func author(p domain.Post) string {
	if p.AuthorUsername != "" {
		return p.AuthorUsername
	}
	return "usuario " + strconv.FormatInt(p.UserID, 10)
}

// describeError traduce los errores del gateway a mensajes para el usuario.
func describeError(err error) string {
	var apiErr *gateway.APIError
	detail := ""
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		detail = " (" + apiErr.Message + ")"
	}
	switch {
	case errors.Is(err, gateway.ErrValidation):
		return "datos invalidos" + detail
	case errors.Is(err, gateway.ErrAuth):
		return "no autorizado, inicia sesión de nuevo" + detail
	case errors.Is(err, gateway.ErrForbidden):
		return "no tienes permiso para esta acción" + detail
	case errors.Is(err, gateway.ErrNotFound):
		return "no encontrado" + detail
	case errors.Is(err, gateway.ErrConflict):
		return "conflicto" + detail
	case errors.Is(err, gateway.ErrNetwork):
		return "no se pudo contactar al servidor"
	default:
		return err.Error()
	}
}
