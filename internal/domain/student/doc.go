// Package student содержит агрегат профиля ученика SkillEra.
//
// Профиль - единственный владелец журнала достижений (Activity), текущего
// ежедневного задания (DailyQuest) и суммы очков. Все изменения очков
// проходят через методы агрегата:
//
//   - LogActivity / CompleteGoal - записи, засчитываемые без проверки;
//   - SettleActivity - решение сотрудника по соревнованию или проекту;
//   - RecordLogin / SubmitQuest / SettleQuest - жизненный цикл задания.
//
// # Инвариант
//
// Points всегда равно сумме очков засчитанных записей плюс награды
// выполненных заданий. CheckPoints проверяет это перед сохранением,
// ReconcilePoints восстанавливает сумму для старых документов.
//
// # Хранение
//
// Пакет определяет Repository; реализации (S3, PostgreSQL, MongoDB, память)
// находятся в infrastructure/persistence. Save выполняет compare-and-swap
// по Version, поэтому две параллельные проверки не теряют изменения друг друга.
package student
