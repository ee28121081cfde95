package bot

// User-facing texts. The bot speaks Russian.
const (
	msgStart = "Привет! Я бот для классификации изображений.\n" +
		"Команды:\n" +
		"/register - регистрация\n" +
		"/login - вход\n" +
		"/predict - классификация изображения\n" +
		"/logout - выход\n" +
		"/cancel - отмена операции"

	msgRegisterPrompt    = "Введите ваш пароль для регистрации:"
	msgAlreadyRegistered = "Вы уже зарегистрированы. Используйте /login для входа."
	msgRegistered        = "Вы успешно зарегистрированы! Теперь используйте /login для входа."

	msgLoginPrompt = "Введите ваш пароль для входа:"
	msgLoginOK     = "Вы успешно вошли в систему!"
	msgLoginFail   = "Неверный пароль или вы не зарегистрированы."

	msgPredictPrompt    = "Отправьте изображение для классификации."
	msgPredictNeedLogin = "Для классификации изображения необходимо войти в систему. Используйте /login."

	msgLogout    = "Вы вышли из системы."
	msgCancelled = "Операция отменена."

	msgUnknownCommand = "Я не понимаю эту команду."
	msgUseCommands    = "Используйте команды или отправьте изображение после /predict."

	msgPhotoNeedLogin   = "Вы должны быть авторизованы, чтобы отправлять изображения. Используйте /login."
	msgPhotoUnexpected  = "Я не ожидал изображение сейчас. Возможно, вам нужно использовать команду /predict."
	msgPhotoError       = "Произошла ошибка при обработке изображения."
	msgModelUnavailable = "Модель классификации недоступна."

	// fmt: label, confidence in percent
	msgPredictionFormat = "На изображении: %s\nУверенность: %.2f%%"
)
