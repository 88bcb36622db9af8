package i18n

var catalogs = map[string]map[string]string{
	"en": {
		"language.name": "English",

		"register.choose_language":      "Please choose your language.",
		"register.language_set":         "Language set.",
		"register.already_registered":   "You are already registered on this server.",
		"register.banned":               "You are not allowed to register on this server.",
		"register.enter_username":       "Enter the username you want for the voice server account.",
		"register.username_taken":       "That username is already taken. Please choose another one.",
		"register.username_check_error": "Could not verify the username right now. Please try again.",
		"register.enter_password":       "Enter the password for your new account.",
		"register.choose_account_type":  "Choose the account type for this registration.",
		"register.account_type_user":    "Regular user",
		"register.account_type_admin":   "Administrator",
		"register.nickname_question":    "Use %s as your nickname as well?",
		"register.nickname_yes":         "Yes",
		"register.nickname_no":          "No, let me pick one",
		"register.enter_nickname":       "Enter the nickname you want to use.",
		"register.awaiting_approval":    "Your registration request has been sent to the administrators. You will be notified once it is reviewed.",
		"register.approved":             "Your registration was approved. Welcome aboard!",
		"register.rejected":             "Your registration request was rejected.",
		"register.completed":            "Account %s has been created on %s.",
		"register.cancelled":            "Registration cancelled.",
		"register.nothing_to_cancel":    "There is nothing to cancel.",
		"register.failed":               "Registration failed because of a server error. Please try again later.",

		"artifact.config_caption": "Your connection file. Open it with the client to connect.",
		"artifact.client_caption": "Preconfigured client bundle.",
		"artifact.link_message":   "Quick connect link:\n%s",
		"artifact.download_page":  "Download your connection file here:\n%s",

		"admin.approval_request":     "New registration request:\nUsername: %s\nNickname: %s\nRequested by: %s (%d)\nIP: %s",
		"admin.approve":              "Approve",
		"admin.reject":               "Reject",
		"admin.approved_by":          "Registration of %s approved by %s.",
		"admin.rejected_by":          "Registration of %s rejected by %s.",
		"admin.already_resolved":     "This request was already handled.",
		"admin.already_registered":   "User %s is already registered; the request was closed.",
		"admin.request_obsolete":     "Registration request for %s was closed by %s: the user is already registered.",
		"admin.registered":           "User %s was registered.",
		"admin.registration_summary": "New registration: %s via %s (language: %s, requested by %s).",
		"admin.sync_error":           "CRITICAL: account %s was created on the server but recording it locally failed: %v. Fix manually.",
		"admin.account_removed":      "Account %s was removed from the server; the linked identity was banned from re-registering.",
		"admin.not_authorized":       "You are not authorized to use this command.",
		"admin.no_registrations":     "No registrations found.",
		"admin.user_deleted":         "Account %s deleted.",
		"admin.user_not_found":       "No registration found for %s.",
		"admin.unbanned":             "Identity %d unbanned.",
		"admin.not_banned":           "Identity %d is not banned.",
		"admin.no_bans":              "No banned identities.",
		"admin.account_created":      "Account created on server: %s",
	},
	"ru": {
		"language.name": "Русский",

		"register.choose_language":      "Пожалуйста, выберите язык.",
		"register.language_set":         "Язык установлен.",
		"register.already_registered":   "Вы уже зарегистрированы на этом сервере.",
		"register.banned":               "Вам запрещена регистрация на этом сервере.",
		"register.enter_username":       "Введите имя пользователя для учётной записи на голосовом сервере.",
		"register.username_taken":       "Это имя пользователя уже занято. Пожалуйста, выберите другое.",
		"register.username_check_error": "Не удалось проверить имя пользователя. Попробуйте ещё раз.",
		"register.enter_password":       "Введите пароль для новой учётной записи.",
		"register.choose_account_type":  "Выберите тип учётной записи для этой регистрации.",
		"register.account_type_user":    "Обычный пользователь",
		"register.account_type_admin":   "Администратор",
		"register.nickname_question":    "Использовать %s и как никнейм?",
		"register.nickname_yes":         "Да",
		"register.nickname_no":          "Нет, выберу другой",
		"register.enter_nickname":       "Введите желаемый никнейм.",
		"register.awaiting_approval":    "Ваш запрос на регистрацию отправлен администраторам. Вы получите уведомление после рассмотрения.",
		"register.approved":             "Ваша регистрация одобрена. Добро пожаловать!",
		"register.rejected":             "Ваш запрос на регистрацию отклонён.",
		"register.completed":            "Учётная запись %s создана на %s.",
		"register.cancelled":            "Регистрация отменена.",
		"register.nothing_to_cancel":    "Отменять нечего.",
		"register.failed":               "Регистрация не удалась из-за ошибки сервера. Попробуйте позже.",

		"artifact.config_caption": "Ваш файл подключения. Откройте его в клиенте, чтобы подключиться.",
		"artifact.client_caption": "Настроенный клиент.",
		"artifact.link_message":   "Ссылка для быстрого подключения:\n%s",
		"artifact.download_page":  "Скачать файл подключения можно здесь:\n%s",

		"admin.approval_request":     "Новый запрос на регистрацию:\nИмя пользователя: %s\nНикнейм: %s\nЗапросил: %s (%d)\nIP: %s",
		"admin.approve":              "Одобрить",
		"admin.reject":               "Отклонить",
		"admin.approved_by":          "Регистрация %s одобрена: %s.",
		"admin.rejected_by":          "Регистрация %s отклонена: %s.",
		"admin.already_resolved":     "Этот запрос уже обработан.",
		"admin.already_registered":   "Пользователь %s уже зарегистрирован; запрос закрыт.",
		"admin.request_obsolete":     "Запрос на регистрацию %s закрыт (%s): пользователь уже зарегистрирован.",
		"admin.registered":           "Пользователь %s был зарегистрирован.",
		"admin.registration_summary": "Новая регистрация: %s через %s (язык: %s, запросил %s).",
		"admin.sync_error":           "КРИТИЧНО: учётная запись %s создана на сервере, но не записана локально: %v. Исправьте вручную.",
		"admin.account_removed":      "Учётная запись %s удалена с сервера; связанной личности запрещена повторная регистрация.",
		"admin.not_authorized":       "У вас нет прав на использование этой команды.",
		"admin.no_registrations":     "Регистраций не найдено.",
		"admin.user_deleted":         "Учётная запись %s удалена.",
		"admin.user_not_found":       "Регистрация для %s не найдена.",
		"admin.unbanned":             "Личность %d разбанена.",
		"admin.not_banned":           "Личность %d не забанена.",
		"admin.no_bans":              "Забаненных личностей нет.",
		"admin.account_created":      "На сервере создана учётная запись: %s",
	},
}
